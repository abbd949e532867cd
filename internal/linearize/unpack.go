package linearize

// unpack writes computed derivative blocks into the declared partials.
// Each declared (of, wrt) block selects its slice of the raw structure:
// the result index applies only when there is more than one result or
// the primal returned a tuple. The block is flattened to (ofSize ×
// wrtSize) on the way in, and sparse blocks gather their coordinates.
// Pairs that were computed but never declared are dropped without
// comment.
func (c *Controller) unpack(d derivVals) {
	nof := c.ofs.Len()
	for _, key := range c.parts.Keys() {
		oi, ok := c.ofs.Index(key.Of)
		if !ok {
			continue
		}
		wi, ok := c.args.Index(key.WRT)
		if !ok {
			continue
		}
		row := d.blocks[0]
		if nof > 1 || d.nested {
			row = d.blocks[oi]
		}
		blk, _ := c.parts.Block(key)
		blk.SetFrom(row[wi])
	}
}
