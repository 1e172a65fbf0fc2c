// Package notify sends fire-and-forget HTTP notifications for coordinator
// events. The primary use case is ntfy.sh, but any HTTP webhook works.
package notify

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/LISSConsulting/LISSTech.TestDeck/internal/coordinator"
)

// Notifier posts plain-text HTTP notifications for selected coordinator
// events.
type Notifier struct {
	url       string
	title     string
	onBatch   bool
	onFailure bool
	onCancel  bool
	client    *http.Client
	wg        sync.WaitGroup
}

// Options selects which events trigger a notification.
type Options struct {
	OnBatch   bool
	OnFailure bool
	OnCancel  bool
}

// New creates a Notifier. projectName is used as the X-Title header; if empty,
// "TestDeck" is used instead.
func New(notifURL, projectName string, opts Options) *Notifier {
	title := "TestDeck"
	if projectName != "" {
		title = projectName
	}
	return &Notifier{
		url:       notifURL,
		title:     title,
		onBatch:   opts.OnBatch,
		onFailure: opts.OnFailure,
		onCancel:  opts.OnCancel,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Hook fires an asynchronous POST when ev matches the configured flags.
func (n *Notifier) Hook(ev coordinator.Event) {
	msg, ok := n.message(ev)
	if !ok {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.post(msg)
	}()
}

// Wait blocks until every in-flight POST has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) message(ev coordinator.Event) (string, bool) {
	switch ev.Kind {
	case coordinator.EventAllCompleted:
		if n.onBatch {
			return fmt.Sprintf("Run all completed in %.1fs", ev.Duration.Seconds()), true
		}
	case coordinator.EventRunAllCancelled:
		if n.onCancel {
			return "Run all cancelled", true
		}
	case coordinator.EventSuiteCompleted:
		r := ev.Result
		if !n.onFailure || r == nil {
			return "", false
		}
		if r.TimedOut {
			return fmt.Sprintf("Suite %s timed out", ev.Suite), true
		}
		if r.Failed > 0 {
			return fmt.Sprintf("Suite %s: %d of %d tests failed", ev.Suite, r.Failed, r.Total), true
		}
	}
	return "", false
}

// post sends a plain-text POST to the configured URL. Errors are silently
// discarded so notification failures never interrupt a run.
func (n *Notifier) post(message string) {
	req, err := http.NewRequest(http.MethodPost, n.url, strings.NewReader(message))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Title", n.title)
	resp, err := n.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
