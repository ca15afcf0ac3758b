package client

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kbukum/nativesvc/connection"
)

// Client drives a connection.Connection one request at a time. Like the
// connection it wraps, it is not safe for concurrent use.
type Client struct {
	conn connection.Connection
	// cycle counts started requests. Requests and responses remember the
	// cycle they belong to and refuse to act once it has moved on.
	cycle uint64
}

// Wrap returns a Client over conn.
func Wrap(conn connection.Connection) *Client {
	return &Client{conn: conn}
}

// Connection returns the wrapped connection.
func (c *Client) Connection() connection.Connection {
	return c.conn
}

// Get starts a GET request.
func (c *Client) Get(uri string) (*Request, error) {
	return c.Request(connection.MethodGet, uri, nil)
}

// Post starts a POST request.
func (c *Client) Post(uri string, headers []connection.HeaderPair) (*Request, error) {
	return c.Request(connection.MethodPost, uri, headers)
}

// Put starts a PUT request.
func (c *Client) Put(uri string, headers []connection.HeaderPair) (*Request, error) {
	return c.Request(connection.MethodPut, uri, headers)
}

// Delete starts a DELETE request.
func (c *Client) Delete(uri string) (*Request, error) {
	return c.Request(connection.MethodDelete, uri, nil)
}

// Request starts a request with any method. Starting a request ends the
// previous Request and Response: their methods return ErrNoRequest and
// ErrNoResponse from then on.
func (c *Client) Request(method connection.Method, uri string, headers []connection.HeaderPair) (*Request, error) {
	if err := c.conn.InitiateRequest(method, uri, headers); err != nil {
		return nil, err
	}
	c.cycle++
	return &Request{client: c, cycle: c.cycle}, nil
}

// Request is an initiated request whose body is still being written.
type Request struct {
	client    *Client
	cycle     uint64
	submitted bool
}

func (r *Request) current() bool {
	return !r.submitted && r.cycle == r.client.cycle
}

// Write appends p to the request body.
func (r *Request) Write(p []byte) (int, error) {
	if !r.current() {
		return 0, connection.ErrNoRequest
	}
	return r.client.conn.Write(p)
}

// Flush makes everything written since the last flush the request body.
func (r *Request) Flush() error {
	if !r.current() {
		return connection.ErrNoRequest
	}
	return r.client.conn.Flush()
}

// Submit sends the request and waits for the response head. A request
// is submitted at most once.
func (r *Request) Submit() (*Response, error) {
	if !r.current() {
		return nil, connection.ErrNoRequest
	}
	r.submitted = true
	if err := r.client.conn.InitiateResponse(); err != nil {
		return nil, err
	}
	return &Response{client: r.client, cycle: r.cycle}, nil
}

// Response is the response of one request cycle.
type Response struct {
	client *Client
	cycle  uint64
}

func (r *Response) conn() (connection.Connection, error) {
	if r.cycle != r.client.cycle {
		return nil, connection.ErrNoResponse
	}
	return r.client.conn, nil
}

// Status returns the status code.
func (r *Response) Status() (int, error) {
	conn, err := r.conn()
	if err != nil {
		return 0, err
	}
	return conn.Status()
}

// StatusMessage returns the reason phrase, if one is known.
func (r *Response) StatusMessage() (string, bool) {
	conn, err := r.conn()
	if err != nil {
		return "", false
	}
	return conn.StatusMessage()
}

// Header returns the first value of the named header.
func (r *Response) Header(name string) (string, bool) {
	conn, err := r.conn()
	if err != nil {
		return "", false
	}
	return conn.Header(name)
}

// Read reads from the response body.
func (r *Response) Read(p []byte) (int, error) {
	conn, err := r.conn()
	if err != nil {
		return 0, err
	}
	return conn.Read(p)
}

// Split returns the response head and body reader.
func (r *Response) Split() (*connection.ResponseHead, *connection.BodyReader, error) {
	conn, err := r.conn()
	if err != nil {
		return nil, nil, err
	}
	return conn.Split()
}

// ReadAll reads the rest of the body.
func (r *Response) ReadAll() ([]byte, error) {
	return io.ReadAll(r)
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	status, err := r.Status()
	return err == nil && status >= 200 && status < 300
}

// IsError reports a 4xx or 5xx status.
func (r *Response) IsError() bool {
	status, err := r.Status()
	return err == nil && status >= 400
}

// DecodeJSON reads the rest of the body and decodes it into a T.
func DecodeJSON[T any](r *Response) (T, error) {
	var out T
	data, err := r.ReadAll()
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
