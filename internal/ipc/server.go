package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

// Handler responds to one decoded control request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve accepts control connections on the daemon socket until the context
// is cancelled or the listener closes. Each connection carries exactly one
// request line and one JSON response.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var active sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				active.Wait()
				return nil
			}
			return fmt.Errorf("accept control connection: %w", err)
		}

		active.Add(1)
		go func(c net.Conn) {
			defer active.Done()
			serveConn(ctx, c, handler)
		}(conn)
	}
}

// serveConn reads the request line, dispatches it, and writes the response.
// Malformed input gets an error response rather than a dropped connection.
func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		writeResponse(conn, Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		writeResponse(conn, Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	writeResponse(conn, handler.Handle(ctx, req))
}

func writeResponse(conn net.Conn, resp Response) {
	_ = json.NewEncoder(conn).Encode(resp)
}
