package util

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
)

// FullDecode reads the full body of a request before decoding, so that
// keepalive connections are left in a consistent state even on bad input.
func FullDecode(r io.ReadCloser, obj interface{}) error {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read request body: %v", err)
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return err
	}
	return nil
}
