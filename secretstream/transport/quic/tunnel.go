// Package quic runs secretstreams over a QUIC connection.
//
// QUIC provides transport (loss recovery, ordering, connection migration);
// the secretstream layer provides end-to-end authenticated encryption
// bound to a pre-shared key, independent of the transport's own TLS. Each
// tunnel direction is its own stream: both sides derive direction-bound
// keys from the shared key, exchange headers at stream open, and then
// exchange framed chunks.
package quic

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"

	q "github.com/quic-go/quic-go"

	"github.com/TheusHen/secretstream/secretstream"
)

// MaxFramePayload limits a single tunnel frame payload.
const MaxFramePayload = 1 << 20 // 1 MiB

var (
	ErrFrameTooLarge = errors.New("quic: frame payload too large")
	ErrTunnelClosed  = errors.New("quic: tunnel closed")
)

// Direction-binding contexts for key derivation: the client encrypts with
// the client key and decrypts with the server key, and vice versa.
var (
	clientKeyInfo = []byte("secretstream/1 client")
	serverKeyInfo = []byte("secretstream/1 server")
)

// Tunnel is an established encrypted channel. Sends and receives are
// internally ordered; a Tunnel may be used by one sender and one receiver
// goroutine concurrently.
type Tunnel struct {
	conn   *q.Conn
	stream *q.Stream

	sendMu sync.Mutex
	enc    *secretstream.Encryptor

	recvMu sync.Mutex
	dec    *secretstream.Decryptor

	closed bool
}

// Listener accepts incoming tunnels bound to a pre-shared key.
type Listener struct {
	inner *q.Listener
	key   secretstream.Key
}

// Listen starts a tunnel listener on addr. All accepted tunnels use key.
func Listen(addr string, key secretstream.Key) (*Listener, error) {
	tlsConf, err := ephemeralTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := q.ListenAddr(addr, tlsConf, &q.Config{})
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln, key: key}, nil
}

// Accept waits for an incoming tunnel and completes the header exchange.
func (l *Listener) Accept(ctx context.Context) (*Tunnel, error) {
	conn, err := l.inner.Accept(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		conn.CloseWithError(0, "no stream")
		return nil, err
	}
	t, err := newTunnel(conn, stream, l.key, false)
	if err != nil {
		conn.CloseWithError(0, "handshake failed")
		return nil, err
	}
	return t, nil
}

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

func (l *Listener) Close() error { return l.inner.Close() }

// Dial opens a tunnel to addr under key.
func Dial(ctx context.Context, addr string, key secretstream.Key) (*Tunnel, error) {
	tlsConf, err := ephemeralTLSConfig()
	if err != nil {
		return nil, err
	}
	conn, err := q.DialAddr(ctx, addr, tlsConf, &q.Config{})
	if err != nil {
		return nil, err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(0, "no stream")
		return nil, err
	}
	t, err := newTunnel(conn, stream, key, true)
	if err != nil {
		conn.CloseWithError(0, "handshake failed")
		return nil, err
	}
	return t, nil
}

// newTunnel derives the direction keys, sends the local stream header and
// reads the peer's.
func newTunnel(conn *q.Conn, stream *q.Stream, key secretstream.Key, isClient bool) (*Tunnel, error) {
	sendInfo, recvInfo := clientKeyInfo, serverKeyInfo
	if !isClient {
		sendInfo, recvInfo = serverKeyInfo, clientKeyInfo
	}
	sendKey, err := secretstream.DeriveKey(key[:], nil, sendInfo)
	if err != nil {
		return nil, err
	}
	recvKey, err := secretstream.DeriveKey(key[:], nil, recvInfo)
	if err != nil {
		return nil, err
	}

	enc, header, err := secretstream.NewEncryptor(sendKey)
	if err != nil {
		return nil, err
	}
	if _, err := stream.Write(header.Bytes()); err != nil {
		return nil, err
	}

	var peerRaw [secretstream.HeaderBytes]byte
	if _, err := io.ReadFull(stream, peerRaw[:]); err != nil {
		return nil, err
	}
	peerHeader, err := secretstream.HeaderFromBytes(peerRaw[:])
	if err != nil {
		return nil, err
	}
	dec, err := secretstream.NewDecryptor(peerHeader, recvKey)
	if err != nil {
		return nil, err
	}

	return &Tunnel{conn: conn, stream: stream, enc: enc, dec: dec}, nil
}

// Send encrypts p as a Message chunk and writes it to the tunnel.
func (t *Tunnel) Send(p []byte) error {
	return t.SendTagged(p, secretstream.TagMessage)
}

// SendTagged encrypts p under an explicit tag. Sending with TagFinal
// finalizes the send direction; use Close instead unless a final payload
// must be carried.
func (t *Tunnel) SendTagged(p []byte, tag secretstream.Tag) error {
	if len(p) > MaxFramePayload {
		return ErrFrameTooLarge
	}

	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	if t.closed {
		return ErrTunnelClosed
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p)+secretstream.ABytes))

	ciphertext, err := t.enc.Encrypt(p, lenBuf[:], tag)
	if err != nil {
		return err
	}
	if _, err := t.stream.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = t.stream.Write(ciphertext)
	return err
}

// Recv reads, verifies and decrypts the next chunk from the peer. It
// returns the chunk's tag alongside the plaintext; after a TagFinal chunk
// subsequent calls return io.EOF.
func (t *Tunnel) Recv() ([]byte, secretstream.Tag, error) {
	t.recvMu.Lock()
	defer t.recvMu.Unlock()

	if t.dec.IsFinalized() {
		return nil, 0, io.EOF
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(t.stream, lenBuf[:]); err != nil {
		return nil, 0, err
	}
	clen := binary.BigEndian.Uint32(lenBuf[:])
	if clen > MaxFramePayload+secretstream.ABytes {
		return nil, 0, ErrFrameTooLarge
	}

	ciphertext := make([]byte, clen)
	if _, err := io.ReadFull(t.stream, ciphertext); err != nil {
		return nil, 0, err
	}
	return t.dec.Decrypt(ciphertext, lenBuf[:])
}

// Close finalizes the send direction with an empty Final chunk and closes
// the connection. The peer observes the finalization before the transport
// goes away, so a missing Final chunk means the tunnel was cut.
func (t *Tunnel) Close() error {
	t.sendMu.Lock()
	if t.closed {
		t.sendMu.Unlock()
		return nil
	}
	t.closed = true

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(secretstream.ABytes))
	if ciphertext, err := t.enc.Finalize(nil, lenBuf[:]); err == nil {
		if _, err := t.stream.Write(lenBuf[:]); err == nil {
			t.stream.Write(ciphertext)
		}
	}
	t.stream.Close()
	t.sendMu.Unlock()

	return t.conn.CloseWithError(0, "")
}

// LocalAddr returns the local transport address.
func (t *Tunnel) LocalAddr() net.Addr { return t.conn.LocalAddr() }

// RemoteAddr returns the peer's transport address.
func (t *Tunnel) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }
