package registry

import (
	"sync"
	"time"

	"github.com/chefwhisper/recipe-viewer/internal/bus"
	"github.com/chefwhisper/recipe-viewer/internal/models"
)

// requestTimeout bounds every request/response exchange. If no response event
// shows up inside the window the operation is treated as failed; the listener
// is dropped so nothing waits forever on an unavailable registry.
const requestTimeout = 3 * time.Second

// Client issues registry requests over the bus and waits for the matching
// response, exactly like a UI button would. It holds no reference to the
// registry itself.
//
// Response topics carry no correlation id beyond the timer id, so exchanges
// are serialized through the client's mutex.
type Client struct {
	b       *bus.Bus
	timeout time.Duration
	mu      sync.Mutex
}

// NewClient returns a client with the standard 3 second timeout.
func NewClient(b *bus.Bus) *Client {
	return &Client{b: b, timeout: requestTimeout}
}

// Create requests a timer and returns its id. Empty means suppressed, failed
// or timed out.
func (c *Client) Create(req models.CreateRequest) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan models.CreateResponse, 1)
	unsub := c.b.Subscribe(models.TopicCreatedResponse, func(p any) {
		if resp, ok := p.(models.CreateResponse); ok {
			select {
			case ch <- resp:
			default:
			}
		}
	})
	defer unsub()

	c.b.Publish(models.TopicRequestCreate, req)

	select {
	case resp := <-ch:
		return resp.ID
	case <-time.After(c.timeout):
		return ""
	}
}

// Start requests a start of the given timer.
func (c *Client) Start(id string) bool {
	return c.control(models.TopicRequestStart, models.TopicStartResponse, id)
}

// Pause requests a pause of the given timer.
func (c *Client) Pause(id string) bool {
	return c.control(models.TopicRequestPause, models.TopicPauseResponse, id)
}

// Reset requests a reset of the given timer.
func (c *Client) Reset(id string) bool {
	return c.control(models.TopicRequestReset, models.TopicResetResponse, id)
}

// Remove requests removal of the given timer.
func (c *Client) Remove(id string) bool {
	return c.control(models.TopicRequestRemove, models.TopicRemoveResponse, id)
}

// Rename requests a label change.
func (c *Client) Rename(id, name string) bool {
	return c.exchangeControl(models.TopicRequestRename, models.TopicRenameResponse, id,
		models.RenameRequest{ID: id, Name: name})
}

// SetMetadata requests a metadata merge.
func (c *Client) SetMetadata(id string, meta map[string]any) bool {
	return c.exchangeControl(models.TopicRequestMetadata, models.TopicMetadataResponse, id,
		models.MetadataRequest{ID: id, Metadata: meta})
}

// StartAll requests a batch start and returns the touched count.
func (c *Client) StartAll() int {
	return c.batch(models.TopicRequestStartAll, models.TopicStartAllResponse)
}

// PauseAll requests a batch pause and returns the touched count.
func (c *Client) PauseAll() int {
	return c.batch(models.TopicRequestPauseAll, models.TopicPauseAllResponse)
}

// ResetAll requests a batch reset and returns the touched count.
func (c *Client) ResetAll() int {
	return c.batch(models.TopicRequestResetAll, models.TopicResetAllResponse)
}

// ClearAll requests removal of every timer and returns the removed count.
func (c *Client) ClearAll() int {
	return c.batch(models.TopicRequestClear, models.TopicClearResponse)
}

// StartByName fires a fuzzy-resolved start request. No response is defined
// for name requests; an unresolved name is a quiet no-op at the registry.
func (c *Client) StartByName(name string) {
	c.b.Publish(models.TopicRequestStartByName, models.NameRequest{Name: name})
}

// PauseByName fires a fuzzy-resolved pause request.
func (c *Client) PauseByName(name string) {
	c.b.Publish(models.TopicRequestPauseByName, models.NameRequest{Name: name})
}

// ResetByName fires a fuzzy-resolved reset request.
func (c *Client) ResetByName(name string) {
	c.b.Publish(models.TopicRequestResetByName, models.NameRequest{Name: name})
}

// RemoveByName fires a fuzzy-resolved remove request.
func (c *Client) RemoveByName(name string) {
	c.b.Publish(models.TopicRequestRemoveByName, models.NameRequest{Name: name})
}

// Command hands one free-text command to the interpreter and reports whether
// it recognized anything. False as well when no interpreter is listening.
func (c *Client) Command(command string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan models.CommandResult, 1)
	unsub := c.b.Subscribe(models.TopicCommandResult, func(p any) {
		if resp, ok := p.(models.CommandResult); ok {
			select {
			case ch <- resp:
			default:
			}
		}
	})
	defer unsub()

	c.b.Publish(models.TopicCommandProcess, models.CommandRequest{Command: command})

	select {
	case resp := <-ch:
		return resp.Recognized
	case <-time.After(c.timeout):
		return false
	}
}

func (c *Client) control(reqTopic, respTopic, id string) bool {
	return c.exchangeControl(reqTopic, respTopic, id, models.ControlRequest{ID: id})
}

func (c *Client) exchangeControl(reqTopic, respTopic, id string, payload any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan models.ControlResponse, 1)
	unsub := c.b.Subscribe(respTopic, func(p any) {
		resp, ok := p.(models.ControlResponse)
		if !ok || resp.ID != id {
			return
		}
		select {
		case ch <- resp:
		default:
		}
	})
	defer unsub()

	c.b.Publish(reqTopic, payload)

	select {
	case resp := <-ch:
		return resp.Success
	case <-time.After(c.timeout):
		return false
	}
}

func (c *Client) batch(reqTopic, respTopic string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan models.BatchResponse, 1)
	unsub := c.b.Subscribe(respTopic, func(p any) {
		if resp, ok := p.(models.BatchResponse); ok {
			select {
			case ch <- resp:
			default:
			}
		}
	})
	defer unsub()

	c.b.Publish(reqTopic, nil)

	select {
	case resp := <-ch:
		return resp.Count
	case <-time.After(c.timeout):
		return 0
	}
}
