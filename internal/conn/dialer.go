package conn

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one open stream to the simulation.
type Conn interface {
	Read() ([]byte, error)
	Write(b []byte) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// Endpoint is either a full URL or a host/port/path triple.
type Endpoint struct {
	URL  string
	Host string
	Port int
	Path string
	TLS  bool
}

func (e Endpoint) String() string {
	if s := strings.TrimSpace(e.URL); s != "" {
		return s
	}
	scheme := "ws"
	if e.TLS {
		scheme = "wss"
	}
	host := e.Host
	if host == "" {
		host = "localhost"
	}
	if e.Port > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(e.Port))
	}
	path := e.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return (&url.URL{Scheme: scheme, Host: host, Path: path}).String()
}

func (e Endpoint) Validate() error {
	u, err := url.Parse(e.String())
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("endpoint: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint: missing host")
	}
	return nil
}

// WSDialer opens gorilla websocket connections.
type WSDialer struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// ReadTimeout of zero means reads never time out.
	ReadTimeout time.Duration
	Header      http.Header
}

func (d WSDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	hs := d.HandshakeTimeout
	if hs <= 0 {
		hs = 5 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: hs}
	hdr := d.Header
	if hdr == nil {
		hdr = http.Header{}
	}
	c, resp, err := dialer.DialContext(ctx, endpoint, hdr)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	wt := d.WriteTimeout
	if wt <= 0 {
		wt = 5 * time.Second
	}
	return &wsConn{c: c, writeTimeout: wt, readTimeout: d.ReadTimeout}, nil
}

type wsConn struct {
	c            *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
	readTimeout  time.Duration
}

func (w *wsConn) Read() ([]byte, error) {
	for {
		if w.readTimeout > 0 {
			_ = w.c.SetReadDeadline(time.Now().Add(w.readTimeout))
		}
		mt, b, err := w.c.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			return b, nil
		}
	}
}

func (w *wsConn) Write(b []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) Close() error {
	w.writeMu.Lock()
	_ = w.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	w.writeMu.Unlock()
	return w.c.Close()
}
