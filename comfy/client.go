// Package comfy talks to a ComfyUI server: it uploads images, queues
// workflows and collects images streamed back over the websocket.
package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// ErrNoOutput is returned when a prompt finishes without streaming an image.
var ErrNoOutput = errors.New("comfy: prompt produced no image")

// imageHeaderLen is the event type and image format prefix of binary frames.
const imageHeaderLen = 8

// Client is a ComfyUI API client.
type Client struct {
	BaseURL    string
	ClientID   string
	HTTPClient *http.Client
	Logger     *log.Logger
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func (c *Client) endpoint(p string) string {
	return strings.TrimRight(c.BaseURL, "/") + p
}

// Upload sends the file at path to /upload/image in the temp subfolder and
// returns the name the server stored it under.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.WriteField("subfolder", "temp"); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/upload/image"), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger().Debug("uploading image", "file", filepath.Base(path), "url", req.URL.String())
	var out struct {
		Name      string `json:"name"`
		Subfolder string `json:"subfolder"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	name := out.Name
	if name == "" {
		name = filepath.Base(path)
	}
	if out.Subfolder != "" {
		name = out.Subfolder + "/" + name
	}
	c.logger().Debug("upload complete", "path", name)
	return name, nil
}

// Queue submits a workflow and returns its prompt id.
func (c *Client) Queue(ctx context.Context, wf Workflow) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"prompt":    wf,
		"client_id": c.ClientID,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/prompt"), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		PromptID string `json:"prompt_id"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("queue prompt: %w", err)
	}
	if out.PromptID == "" {
		return "", errors.New("queue prompt: response has no prompt_id")
	}
	c.logger().Debug("workflow queued", "prompt_id", out.PromptID)
	return out.PromptID, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// wsURL maps the http(s) base URL onto the websocket endpoint.
func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.endpoint("/ws"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("clientId", c.ClientID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Session is an open websocket stream of execution events for this client.
type Session struct {
	conn   *websocket.Conn
	logger *log.Logger
}

// Connect opens the event stream. Connect before queueing so no event of the
// prompt is missed.
func (c *Client) Connect(ctx context.Context) (*Session, error) {
	u, err := c.wsURL()
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	return &Session{conn: conn, logger: c.logger()}, nil
}

// Close closes the stream.
func (s *Session) Close() error {
	return s.conn.Close()
}

type wsMessage struct {
	Type string `json:"type"`
	Data struct {
		Node             *string `json:"node"`
		PromptID         string  `json:"prompt_id"`
		ExceptionMessage string  `json:"exception_message"`
	} `json:"data"`
}

// Wait reads events until promptID finishes and returns the last image the
// node saveNodeID streamed while executing. The stream also ends when the
// server closes the socket.
func (s *Session) Wait(ctx context.Context, promptID, saveNodeID string) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	var current string
	var output []byte
	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			return nil, fmt.Errorf("read stream: %w", err)
		}

		switch mt {
		case websocket.TextMessage:
			var msg wsMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				s.logger.Warn("ignoring malformed event", "err", err)
				continue
			}
			if msg.Data.PromptID != "" && msg.Data.PromptID != promptID {
				continue
			}
			switch msg.Type {
			case "executing":
				if msg.Data.Node == nil {
					return finish(output)
				}
				current = *msg.Data.Node
				s.logger.Debug("executing", "node", current)
			case "execution_error":
				return nil, fmt.Errorf("comfy: prompt %s failed: %s", promptID, msg.Data.ExceptionMessage)
			}
		case websocket.BinaryMessage:
			if current != saveNodeID || len(data) <= imageHeaderLen {
				continue
			}
			output = append([]byte(nil), data[imageHeaderLen:]...)
		}
	}
	return finish(output)
}

func finish(output []byte) ([]byte, error) {
	if output == nil {
		return nil, ErrNoOutput
	}
	return output, nil
}
