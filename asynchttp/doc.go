// Package asynchttp is an HTTP client whose requests run as tasks on an
// executor.Executor and resolve through futures.
//
// A Response is available as soon as the status line and headers arrive.
// Its Body is a stream of frames filled by a pump task that reads ahead of
// the consumer:
//
//	fut := client.Request(ctx, &asynchttp.Request{Method: http.MethodGet, URL: u})
//	resp, err := executor.BlockOn(ctx, exec, fut)
//	if err != nil {
//	    return err
//	}
//	data, err := executor.BlockOn(ctx, exec, resp.Body.Collect())
//
// The transport is net/http. HTTP/2 over TLS and cleartext HTTP/2 (h2c)
// are provided by golang.org/x/net/http2.
package asynchttp
