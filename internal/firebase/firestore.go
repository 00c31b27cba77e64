package firebase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/tasks"
)

const tasksCollection = "tasks"

func (c *Client) documentsPath() string {
	return fmt.Sprintf("projects/%s/databases/(default)/documents", c.opts.ProjectID)
}

func (c *Client) documentsURL(suffix string) string {
	return fmt.Sprintf("%s/%s%s", c.opts.FirestoreURL, c.documentsPath(), suffix)
}

// AddTask commits a new task document with a server-side createdAt
func (c *Client) AddTask(ctx context.Context, t models.Task) (string, error) {
	token, err := c.idToken(ctx)
	if err != nil {
		return "", err
	}

	id := c.newID()
	write := map[string]any{
		"update": document{
			Name:   fmt.Sprintf("%s/%s/%s", c.documentsPath(), tasksCollection, id),
			Fields: encodeTask(t),
		},
		"updateTransforms": []map[string]string{
			{"fieldPath": "createdAt", "setToServerValue": "REQUEST_TIME"},
		},
		"currentDocument": map[string]bool{"exists": false},
	}

	body := map[string]any{"writes": []any{write}}
	if err := c.postJSON(ctx, c.documentsURL(":commit"), token, body, nil); err != nil {
		return "", err
	}
	c.wakeWatchers()
	return id, nil
}

// SetStatus patches only the status field of an existing task
func (c *Client) SetStatus(ctx context.Context, taskID string, status models.TaskStatus) error {
	token, err := c.idToken(ctx)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("updateMask.fieldPaths", "status")
	q.Set("currentDocument.exists", "true")
	endpoint := c.documentsURL(fmt.Sprintf("/%s/%s?%s", tasksCollection, url.PathEscape(taskID), q.Encode()))

	body := document{Fields: map[string]value{"status": stringValue(string(status))}}
	if err := c.sendJSON(ctx, http.MethodPatch, endpoint, token, body, nil); err != nil {
		return err
	}
	c.wakeWatchers()
	return nil
}

func (c *Client) addWaker() (<-chan struct{}, func()) {
	c.wakeMu.Lock()
	defer c.wakeMu.Unlock()

	if c.wakers == nil {
		c.wakers = make(map[int]chan struct{})
	}
	ch := make(chan struct{}, 1)
	id := c.nextWake
	c.nextWake++
	c.wakers[id] = ch

	return ch, func() {
		c.wakeMu.Lock()
		defer c.wakeMu.Unlock()
		delete(c.wakers, id)
	}
}

func (c *Client) wakeWatchers() {
	c.wakeMu.Lock()
	defer c.wakeMu.Unlock()
	for _, ch := range c.wakers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

type queryResult struct {
	Document *document `json:"document"`
}

// queryTasks runs userId == uid ordered by createdAt descending
func (c *Client) queryTasks(ctx context.Context, userID string) ([]models.Task, error) {
	token, err := c.idToken(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"structuredQuery": map[string]any{
			"from": []map[string]string{{"collectionId": tasksCollection}},
			"where": map[string]any{
				"fieldFilter": map[string]any{
					"field": map[string]string{"fieldPath": "userId"},
					"op":    "EQUAL",
					"value": stringValue(userID),
				},
			},
			"orderBy": []map[string]any{{
				"field":     map[string]string{"fieldPath": "createdAt"},
				"direction": "DESCENDING",
			}},
		},
	}

	var results []queryResult
	if err := c.postJSON(ctx, c.documentsURL(":runQuery"), token, body, &results); err != nil {
		return nil, err
	}

	list := make([]models.Task, 0, len(results))
	for _, r := range results {
		if r.Document != nil {
			list = append(list, decodeTask(*r.Document))
		}
	}
	return list, nil
}

// Watch polls the task query and emits a snapshot whenever the result or
// the error changes. Writes made through this client re-run the query
// without waiting for the next poll. The channel closes when ctx is done.
func (c *Client) Watch(ctx context.Context, userID string) <-chan tasks.Snapshot {
	out := make(chan tasks.Snapshot, 1)
	wake, stop := c.addWaker()

	go func() {
		defer close(out)
		defer stop()
		ticker := time.NewTicker(c.opts.PollInterval)
		defer ticker.Stop()

		var last *tasks.Snapshot
		for {
			list, err := c.queryTasks(ctx, userID)
			if ctx.Err() != nil {
				return
			}
			snap := tasks.Snapshot{Tasks: list, Err: err}
			if err != nil {
				c.log.Debug("task query failed", zap.Error(err))
			}

			if last == nil || !sameSnapshot(*last, snap) {
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
				last = &snap
			}

			select {
			case <-ticker.C:
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func sameSnapshot(a, b tasks.Snapshot) bool {
	if (a.Err == nil) != (b.Err == nil) {
		return false
	}
	if a.Err != nil {
		return a.Err.Error() == b.Err.Error()
	}
	return cmp.Equal(a.Tasks, b.Tasks)
}
