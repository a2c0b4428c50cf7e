package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/compozy/scenario-mcp/pkg/logger"
)

const maxMessageSize = 16 << 20

// StdioTransport serves newline-delimited JSON-RPC messages. Requests are
// handled concurrently and responses are written whole, one per line.
type StdioTransport struct {
	dispatcher *Dispatcher
	in         io.Reader
	out        io.Writer
	writeMu    sync.Mutex
}

func NewStdioTransport(d *Dispatcher, in io.Reader, out io.Writer) *StdioTransport {
	return &StdioTransport{dispatcher: d, in: in, out: out}
}

// Serve reads until EOF or ctx is done, then waits for in-flight requests.
func (t *StdioTransport) Serve(ctx context.Context) error {
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(t.in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			msg := make([]byte, len(line))
			copy(msg, line)
			select {
			case lines <- msg:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	log.Info("Serving MCP over stdio")
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-lines:
			if !ok {
				wg.Wait()
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("failed to read stdin: %w", err)
					}
				default:
				}
				log.Info("Stdin closed")
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				t.handle(ctx, msg)
			}()
		}
	}
}

func (t *StdioTransport) handle(ctx context.Context, msg []byte) {
	resp := t.dispatcher.HandleMessage(ctx, msg)
	if resp == nil {
		return
	}
	if err := t.write(resp); err != nil {
		logger.FromContext(ctx).Error("Failed to write response", "error", err)
	}
}

func (t *StdioTransport) write(resp any) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	data = append(data, '\n')
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.out.Write(data); err != nil {
		if errors.Is(err, io.ErrClosedPipe) {
			return nil
		}
		return err
	}
	return nil
}
