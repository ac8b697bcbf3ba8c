package socketrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

var _ model.IssueQuerier = (*Client)(nil)

// Client implements model.IssueQuerier over a Unix domain socket using JSON-RPC 2.0.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  int
	scanner *bufio.Scanner
	encoder *json.Encoder
}

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("socketrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	return &Client{
		conn:    conn,
		scanner: scanner,
		encoder: json.NewEncoder(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs a JSON-RPC call and unmarshals the result into dest.
// The context deadline, if any, bounds the round trip.
func (c *Client) call(ctx context.Context, method string, params interface{}, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	c.nextID++
	paramsData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("socketrpc: marshal params: %w", err)
	}
	req := Request{
		JSONRPC: "2.0",
		ID:      c.nextID,
		Method:  method,
		Params:  paramsData,
	}

	deadline := time.Now().Add(requestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("socketrpc: send: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fmt.Errorf("socketrpc: read: %w", err)
		}
		return fmt.Errorf("socketrpc: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("socketrpc: unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if resp.ID != req.ID {
		return fmt.Errorf("socketrpc: response id %d does not match request %d", resp.ID, req.ID)
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("socketrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func (c *Client) ListIssues(ctx context.Context) ([]model.Issue, error) {
	var result []model.Issue
	err := c.call(ctx, "ListIssues", map[string]interface{}{}, &result)
	return result, err
}

func (c *Client) IssueCount(ctx context.Context) (int64, error) {
	var result int64
	err := c.call(ctx, "IssueCount", map[string]interface{}{}, &result)
	return result, err
}

func (c *Client) StatusCounts(ctx context.Context) (map[model.Status]int64, error) {
	var result map[model.Status]int64
	err := c.call(ctx, "StatusCounts", map[string]interface{}{}, &result)
	return result, err
}

func (c *Client) FacetCounts(ctx context.Context, facet string) ([]model.DimensionCount, error) {
	var result []model.DimensionCount
	err := c.call(ctx, "FacetCounts", map[string]interface{}{"Facet": facet}, &result)
	return result, err
}
