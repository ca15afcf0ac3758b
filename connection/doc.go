// Package connection provides a blocking HTTP request/response
// connection backed by an asynchronous client.
//
// An HTTPConnection owns an executor.Executor and an asynchttp.Client.
// Each call that needs a network result blocks the calling goroutine on
// the executor until the result is ready:
//
//	conn, err := connection.New(connection.Config{})
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	err = conn.InitiateRequest(connection.MethodPost, "http://localhost:8080/post",
//	    []connection.HeaderPair{{Name: "Content-Type", Value: "application/json"}})
//	_, err = conn.Write([]byte(`{"a":1}`))
//	err = conn.Flush()
//	err = conn.InitiateResponse()
//	status, err := conn.Status()
//	body, err := io.ReadAll(conn)
//
// The connection moves between three states: idle, request pending and
// response ready. Out-of-order calls fail with ErrNoRequest or
// ErrNoResponse.
//
// Flush replaces the request body with the bytes written since the last
// flush. Response bodies are either collected whole on the first Read
// (BodyModeBuffered) or handed out frame by frame (BodyModeStreamed).
package connection
