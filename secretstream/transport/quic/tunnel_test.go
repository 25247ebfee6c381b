package quic

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/TheusHen/secretstream/secretstream"
)

func TestTunnelEcho(t *testing.T) {
	key, err := secretstream.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	ln, err := Listen("127.0.0.1:0", key)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		tun, err := ln.Accept(ctx)
		if err != nil {
			serverErr <- err
			return
		}
		defer tun.Close()
		for {
			p, tag, err := tun.Recv()
			if err != nil || tag == secretstream.TagFinal {
				// io.EOF and transport teardown both end the session.
				serverErr <- nil
				return
			}
			if err := tun.Send(p); err != nil {
				serverErr <- err
				return
			}
		}
	}()

	tun, err := Dial(ctx, ln.Addr().String(), key)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	messages := [][]byte{
		[]byte("hello over quic"),
		[]byte(""),
		bytes.Repeat([]byte("bulk"), 4096),
	}
	for i, msg := range messages {
		if err := tun.Send(msg); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
		echo, tag, err := tun.Recv()
		if err != nil {
			t.Fatalf("Recv %d: %v", i, err)
		}
		if tag != secretstream.TagMessage {
			t.Fatalf("echo %d: tag = %v, want MESSAGE", i, tag)
		}
		if !bytes.Equal(echo, msg) {
			t.Fatalf("echo %d mismatch", i)
		}
	}

	if err := tun.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := <-serverErr; err != nil {
		t.Fatalf("server: %v", err)
	}
}

func TestTunnelWrongKey(t *testing.T) {
	key1, _ := secretstream.GenerateKey()
	key2, _ := secretstream.GenerateKey()

	ln, err := Listen("127.0.0.1:0", key1)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		tun, err := ln.Accept(ctx)
		if err != nil {
			result <- err
			return
		}
		defer tun.Close()
		_, _, err = tun.Recv()
		result <- err
	}()

	tun, err := Dial(ctx, ln.Addr().String(), key2)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer tun.Close()

	if err := tun.Send([]byte("with the wrong key")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// The header exchange cannot detect the mismatch (headers are public);
	// the first chunk must fail authentication on the server.
	err = <-result
	if err != secretstream.ErrDecryptionFailed {
		t.Fatalf("server err = %v, want ErrDecryptionFailed", err)
	}
}

func TestTunnelFinalized(t *testing.T) {
	key, _ := secretstream.GenerateKey()

	ln, err := Listen("127.0.0.1:0", key)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type recvResult struct {
		payload []byte
		tag     secretstream.Tag
		err     error
	}
	results := make(chan recvResult, 2)
	go func() {
		tun, err := ln.Accept(ctx)
		if err != nil {
			results <- recvResult{err: err}
			return
		}
		defer tun.Close()
		for i := 0; i < 2; i++ {
			p, tag, err := tun.Recv()
			results <- recvResult{payload: p, tag: tag, err: err}
			if err != nil {
				return
			}
		}
	}()

	tun, err := Dial(ctx, ln.Addr().String(), key)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := tun.SendTagged([]byte("last words"), secretstream.TagFinal); err != nil {
		t.Fatalf("SendTagged: %v", err)
	}

	r := <-results
	if r.err != nil {
		t.Fatalf("Recv: %v", r.err)
	}
	if r.tag != secretstream.TagFinal || string(r.payload) != "last words" {
		t.Fatalf("got (%q, %v), want (last words, FINAL)", r.payload, r.tag)
	}

	r = <-results
	if r.err != io.EOF {
		t.Fatalf("Recv after final: err = %v, want io.EOF", r.err)
	}

	// The send direction is spent.
	if err := tun.Send([]byte("more")); err != secretstream.ErrStreamFinalized {
		t.Fatalf("Send after final: err = %v, want ErrStreamFinalized", err)
	}
	tun.Close()
}
