package zipatch

// Counts tallies how many chunks of each mutating kind a patch stream
// actually contains, for cross-validation against the totals an FHDR v3
// chunk declares up front.
type Counts struct {
	AddDirectories    int
	DeleteDirectories int
	SqpkAdd           int
	SqpkDelete        int
	SqpkExpand        int
	SqpkHeader        int
	SqpkFile          int
}

// Total is the sum of every tallied sub-count.
func (c Counts) Total() int {
	return c.AddDirectories + c.DeleteDirectories +
		c.SqpkAdd + c.SqpkDelete + c.SqpkExpand + c.SqpkHeader + c.SqpkFile
}

// ActualCounts decodes the patch stream and tallies its actual chunk
// counts, without mutating any on-disk state.
func (p *Patch) ActualCounts() (Counts, error) {
	var c Counts
	err := p.walk(func(chunk Chunk) error {
		switch v := chunk.(type) {
		case *AddDirectoryChunk:
			c.AddDirectories++
		case *DeleteDirectoryChunk:
			c.DeleteDirectories++
		case *SqpkDataChunk:
			switch v.SqpkCmd() {
			case SqpkAddData:
				c.SqpkAdd++
			case SqpkExpandData:
				c.SqpkExpand++
			}
		case *SqpkDeleteDataChunk:
			c.SqpkDelete++
		case *SqpkHeaderWriteChunk:
			c.SqpkHeader++
		case *SqpkFileOpChunk:
			c.SqpkFile++
		}
		return nil
	})
	return c, err
}
