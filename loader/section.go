package loader

// Section is a section of a module image. Addr is relative to the module base.
type Section struct {
	Name       string
	Addr, Size uint64
}
