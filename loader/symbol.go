package loader

// Export is a symbol exported by the image. Addr is relative to the module base.
type Export struct {
	Addr    uint64
	Ordinal uint32
	Name    string
}

// Import is an import slot of the image. Addr is the relative address of the
// slot that receives the imported value.
type Import struct {
	Addr    uint64
	Symbol  string
	Library string
}
