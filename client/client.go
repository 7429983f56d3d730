package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	"github.com/neritic/functiond/protocol"
)

// Functiond defines operations for our client.
type Functiond interface {
	CreateFunction(req protocol.CreateFunctionRequest) (protocol.CreatedFunctionResponse, error)
	GetFunction(id string) (protocol.Function, error)
	ListFunctions(paging protocol.PagingRequest) (protocol.FunctionResultset, error)
	UpdateFunction(req protocol.UpdateFunctionRequest) (protocol.Function, error)
	DeleteFunction(id string) error
	RunFunction(id string) (protocol.ExecutionResult, error)
	CompareRuntimes(id string) (protocol.RuntimeComparison, error)
	GetLatestMetrics(id string) (protocol.FunctionMetricsResponse, error)
	GetMetricsHistory(id string, paging protocol.PagingRequest) (protocol.ExecutionMetricsResultset, error)
	GetMetricsSummary() (protocol.MetricsSummaryResponse, error)
	Ping() error
}

// Config defines the bare minimum that must be statically configured for a Client.
type Config struct {
	// Remote specifies the full API prefix: http://{host}:{port}
	// Actual API endpoints are appended to this string.
	Remote string
	// Identity, if set, is passed on requests as the caller identity.
	Identity string
	// Timeout bounds each request. Zero selects a default suited to
	// function execution calls.
	Timeout time.Duration
}

// Client implements Functiond.
type Client struct {
	httpClient *http.Client
	url        string
	// Verbose will print extra debug information if true.
	Verbose bool
	Conf    Config
}

// Verify that Client implements Functiond.
var _ Functiond = (*Client)(nil)

// NewClient instantiates a new Client that can be used to perform CRUD and
// execution operations against a running functiond instance.
func NewClient(conf Config) (*Client, error) {
	if conf.Remote == "" {
		return nil, fmt.Errorf("client requires a remote url")
	}
	timeout := conf.Timeout
	if timeout == 0 {
		// executions may legitimately take up to the function timeout
		timeout = 2 * time.Minute
	}
	httpClient := &http.Client{Timeout: timeout}
	return &Client{httpClient: httpClient, url: conf.Remote, Conf: conf}, nil
}

// CreateFunction registers a new function and returns its assigned id.
func (c *Client) CreateFunction(req protocol.CreateFunctionRequest) (protocol.CreatedFunctionResponse, error) {
	var ret protocol.CreatedFunctionResponse
	resp, err := c.doPost(c.url+"/functions", req)
	if err != nil {
		return ret, fmt.Errorf("error performing request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return ret, errorFromResponse(resp)
	}
	return ret, c.decode(resp, &ret)
}

// GetFunction retrieves a function by its id.
func (c *Client) GetFunction(id string) (protocol.Function, error) {
	var ret protocol.Function
	resp, err := c.doGet(c.url+"/functions/"+id, nil)
	if err != nil {
		return ret, fmt.Errorf("error performing request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ret, errorFromResponse(resp)
	}
	return ret, c.decode(resp, &ret)
}

// ListFunctions retrieves a page of registered functions.
func (c *Client) ListFunctions(paging protocol.PagingRequest) (protocol.FunctionResultset, error) {
	var ret protocol.FunctionResultset
	resp, err := c.doGet(c.url+"/functions?"+pagingValues(paging).Encode(), nil)
	if err != nil {
		return ret, fmt.Errorf("error performing request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ret, errorFromResponse(resp)
	}
	return ret, c.decode(resp, &ret)
}

// UpdateFunction updates a function. The request must carry the id and the
// current changeToken on record.
func (c *Client) UpdateFunction(req protocol.UpdateFunctionRequest) (protocol.Function, error) {
	var ret protocol.Function
	resp, err := c.doPut(c.url+"/functions/"+req.ID, req)
	if err != nil {
		return ret, fmt.Errorf("error performing request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ret, errorFromResponse(resp)
	}
	return ret, c.decode(resp, &ret)
}

// DeleteFunction removes a function by its id.
func (c *Client) DeleteFunction(id string) error {
	resp, err := c.doDelete(c.url+"/functions/"+id, nil)
	if err != nil {
		return fmt.Errorf("error performing request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// RunFunction executes a function under its registered runtime and returns
// the captured output.
func (c *Client) RunFunction(id string) (protocol.ExecutionResult, error) {
	var ret protocol.ExecutionResult
	resp, err := c.doPost(c.url+"/functions/"+id+"/run", nil)
	if err != nil {
		return ret, fmt.Errorf("error performing request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ret, errorFromResponse(resp)
	}
	return ret, c.decode(resp, &ret)
}

// CompareRuntimes executes a function under both runtimes and returns the
// side by side measurements.
func (c *Client) CompareRuntimes(id string) (protocol.RuntimeComparison, error) {
	var ret protocol.RuntimeComparison
	resp, err := c.doGet(c.url+"/functions/"+id+"/compare", nil)
	if err != nil {
		return ret, fmt.Errorf("error performing request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ret, errorFromResponse(resp)
	}
	return ret, c.decode(resp, &ret)
}

// GetLatestMetrics retrieves the metrics of a function's most recent execution.
func (c *Client) GetLatestMetrics(id string) (protocol.FunctionMetricsResponse, error) {
	var ret protocol.FunctionMetricsResponse
	resp, err := c.doGet(c.url+"/functions/"+id+"/metrics", nil)
	if err != nil {
		return ret, fmt.Errorf("error performing request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ret, errorFromResponse(resp)
	}
	return ret, c.decode(resp, &ret)
}

// GetMetricsHistory retrieves a page of a function's recorded executions.
func (c *Client) GetMetricsHistory(id string, paging protocol.PagingRequest) (protocol.ExecutionMetricsResultset, error) {
	var ret protocol.ExecutionMetricsResultset
	resp, err := c.doGet(c.url+"/functions/"+id+"/metrics/history?"+pagingValues(paging).Encode(), nil)
	if err != nil {
		return ret, fmt.Errorf("error performing request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ret, errorFromResponse(resp)
	}
	return ret, c.decode(resp, &ret)
}

// GetMetricsSummary retrieves aggregate metrics for all functions, grouped
// by function and runtime.
func (c *Client) GetMetricsSummary() (protocol.MetricsSummaryResponse, error) {
	var ret protocol.MetricsSummaryResponse
	resp, err := c.doGet(c.url+"/metrics", nil)
	if err != nil {
		return ret, fmt.Errorf("error performing request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ret, errorFromResponse(resp)
	}
	return ret, c.decode(resp, &ret)
}

// Ping checks availability of the service.
func (c *Client) Ping() error {
	resp, err := c.doGet(c.url+"/ping", nil)
	if err != nil {
		return fmt.Errorf("error performing request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) decode(resp *http.Response, into interface{}) error {
	if c.Verbose {
		data, _ := httputil.DumpResponse(resp, true)
		fmt.Printf("%s", string(data))
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("could not decode response: %v", err)
	}
	return nil
}

func (c *Client) doDelete(uri string, body interface{}) (*http.Response, error) {
	return c.doMethod("DELETE", uri, body)
}
func (c *Client) doGet(uri string, body interface{}) (*http.Response, error) {
	return c.doMethod("GET", uri, body)
}
func (c *Client) doPost(uri string, body interface{}) (*http.Response, error) {
	return c.doMethod("POST", uri, body)
}
func (c *Client) doPut(uri string, body interface{}) (*http.Response, error) {
	return c.doMethod("PUT", uri, body)
}
func (c *Client) doMethod(method string, uri string, body interface{}) (*http.Response, error) {
	var err error
	var jsonBody []byte
	var req *http.Request
	if body != nil {
		jsonBody, err = json.MarshalIndent(body, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("could not marshal json body: %v", err)
		}
		req, err = http.NewRequest(method, uri, bytes.NewBuffer(jsonBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, uri, nil)
		if err != nil {
			return nil, err
		}
	}
	if c.Conf.Identity != "" {
		req.Header.Set("X-User", c.Conf.Identity)
	}
	return c.httpClient.Do(req)
}

func errorFromResponse(resp *http.Response) error {
	statusCode := resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return fmt.Errorf("%d %s", statusCode, string(body))
}

func pagingValues(paging protocol.PagingRequest) url.Values {
	values := url.Values{}
	if paging.PageNumber > 0 {
		values.Set("pageNumber", strconv.Itoa(paging.PageNumber))
	}
	if paging.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(paging.PageSize))
	}
	return values
}
