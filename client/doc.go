// Package client is a thin request/response wrapper over a
// connection.Connection, the way a generic blocking HTTP client drives
// any connection that implements the contract.
//
//	conn, _ := connection.New(connection.Config{})
//	defer conn.Close()
//
//	req, err := client.Wrap(conn).Post("http://localhost:8080/post",
//	    []connection.HeaderPair{{Name: "Content-Type", Value: "application/json"}})
//	if err != nil {
//	    return err
//	}
//	_, _ = req.Write([]byte(`{"a":1}`))
//	resp, err := req.Submit()
//	if err != nil {
//	    return err
//	}
//	body, err := resp.ReadAll()
package client
