package core

// Buffer is a storage grouping for accessor data. Accessors that share a
// buffer are packed into the same binary blob at serialization time; the
// buffer entity itself carries no bytes in memory.
type Buffer struct {
	doc  *Document
	uri  string
	name string
}

// URI returns the buffer's source URI ("" for a GLB binary chunk).
func (b *Buffer) URI() string { return b.uri }

// SetURI sets the buffer's target URI for serialization.
func (b *Buffer) SetURI(uri string) *Buffer {
	b.uri = uri
	return b
}

// Name returns the buffer name.
func (b *Buffer) Name() string { return b.name }

// SetName sets the buffer name.
func (b *Buffer) SetName(name string) *Buffer {
	b.name = name
	return b
}
