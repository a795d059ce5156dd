package mqtt5

import (
	"bytes"
	"sync"
)

// encodeBufferPool recycles the scratch buffers WritePacket encodes
// into before the single transport write.
var encodeBufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

func getEncodeBuffer() *bytes.Buffer {
	b := encodeBufferPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// putEncodeBuffer returns a buffer to the pool. Oversized buffers are
// dropped so one large publish does not pin its memory.
func putEncodeBuffer(b *bytes.Buffer) {
	if b == nil || b.Cap() > 65536 {
		return
	}
	encodeBufferPool.Put(b)
}
