package byteutil

import (
	"bytes"
	"sync"
)

var bytesBuffer = sync.Pool{
	New: func() interface{} { return &bytes.Buffer{} },
}

// GetBytesBuf returns an empty buffer from the pool.
func GetBytesBuf() *bytes.Buffer {
	p := bytesBuffer.Get().(*bytes.Buffer)
	p.Reset()
	return p
}

func PutBytesBuf(p *bytes.Buffer) {
	bytesBuffer.Put(p)
}
