package bridge

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// pipeConn wraps a net.Pipe() half so that tests can exercise CloseWrite
// propagation without needing real sockets.
type pipeConn struct {
	net.Conn
	closeWriteCh chan struct{}
}

func (p *pipeConn) CloseWrite() error {
	close(p.closeWriteCh)
	return p.Conn.Close()
}

func TestPumpCopiesBothDirectionsAndClosesOnCompletion(t *testing.T) {
	clientSide, clientRemote := net.Pipe()
	upstreamSide, upstreamRemote := net.Pipe()

	done := make(chan struct{})
	go func() {
		Pump(clientSide, upstreamSide, zerolog.Nop())
		close(done)
	}()

	// client -> upstream
	go func() {
		clientRemote.Write([]byte("hello upstream"))
	}()
	buf := make([]byte, len("hello upstream"))
	if _, err := io.ReadFull(upstreamRemote, buf); err != nil {
		t.Fatalf("read from upstream side: %v", err)
	}
	if !bytes.Equal(buf, []byte("hello upstream")) {
		t.Fatalf("unexpected bytes: %q", buf)
	}

	// upstream -> client
	go func() {
		upstreamRemote.Write([]byte("hello client"))
	}()
	buf2 := make([]byte, len("hello client"))
	if _, err := io.ReadFull(clientRemote, buf2); err != nil {
		t.Fatalf("read from client side: %v", err)
	}
	if !bytes.Equal(buf2, []byte("hello client")) {
		t.Fatalf("unexpected bytes: %q", buf2)
	}

	clientRemote.Close()
	upstreamRemote.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Pump did not return after both sides closed")
	}
}

func TestCopyHalfCloseInvokesCloseWrite(t *testing.T) {
	src := bytes.NewReader([]byte("payload"))
	dstPeer, dstRemote := net.Pipe()
	go io.Copy(io.Discard, dstPeer)
	closed := make(chan struct{})
	dst := &pipeConn{Conn: dstRemote, closeWriteCh: closed}

	done := make(chan struct{})
	go func() {
		copyHalfClose(dst, src, zerolog.Nop(), "test")
		close(done)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("CloseWrite was not called")
	}
	<-done
}
