package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
)

// Ingress accepts CBOR envelopes from worker processes on a unixgram socket
// and republishes them on a Broker.
type Ingress struct {
	conn   *net.UnixConn
	path   string
	broker *Broker
}

// ListenIngress binds the socket at path, replacing a stale one.
func ListenIngress(path string, b *Broker) (*Ingress, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale bus socket: %w", err)
	}
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return nil, fmt.Errorf("listen bus socket %q: %w", path, err)
	}
	return &Ingress{conn: conn, path: path, broker: b}, nil
}

// Serve reads envelopes until ctx is cancelled.
func (in *Ingress) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = in.conn.Close() })
	defer stop()
	defer os.Remove(in.path)

	buf := make([]byte, maxEnvelopeSize)
	for {
		n, _, err := in.conn.ReadFromUnix(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read bus socket: %w", err)
		}
		env, err := UnmarshalEnvelope(buf[:n])
		if err != nil {
			slog.Warn("dropping bus datagram", "err", err)
			continue
		}
		in.broker.PublishEnvelope(env)
	}
}

func (in *Ingress) Close() error {
	return in.conn.Close()
}

// Send publishes one envelope to the ingress socket at path.
func Send(path string, env Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return fmt.Errorf("dial bus socket %q: %w", path, err)
	}
	defer conn.Close()
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("send envelope: %w", err)
	}
	return nil
}
