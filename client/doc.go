/*
Package client implements common operations to build client-side applications
against a running functiond instance.

Below briefly illustrates a simple cycle of creating a client and using it to
register and execute a function. The first step is to create a new client.

  var conf = Config{
    Remote: "http://localhost:8080",
  }

  client, err := NewClient(conf)
  // err handling

This client can then be used to perform operations.

  created, err := client.CreateFunction(protocol.CreateFunctionRequest{
    Name:     "hello",
    Language: "python",
    Timeout:  5,
    Code:     `print("hello world")`,
  })

  result, err := client.RunFunction(created.ID)

The return from RunFunction has the captured output of the execution, and the
recorded measurements can be fetched afterwards.

  metrics, err := client.GetLatestMetrics(created.ID)
*/
package client
