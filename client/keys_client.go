package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bnb-chain/keys-hub/entity"
)

var (
	ErrNotFound         = errors.New("the requested entity is not found in keys hub")
	ErrDataNotAvailable = errors.New("keys hub has not synced the registry yet")
)

const (
	pathStatus         = "/v1/status"
	pathModules        = "/v1/modules"
	pathModule         = "/v1/modules/%s"
	pathModuleKeys     = "/v1/modules/%s/keys"
	pathFindKeys       = "/v1/modules/%s/keys/find"
	pathModuleOperator = "/v1/modules/%s/operators/%d"
	pathKey            = "/v1/keys/%s"
)

// KeysClient reads the keys hub http api.
type KeysClient struct {
	hc   *http.Client
	host string
}

// Response is the envelope every non-status endpoint returns.
type Response[T any] struct {
	Data T           `json:"data"`
	Meta entity.Meta `json:"meta"`
}

type OperatorWithModule struct {
	Operator *entity.Operator `json:"operator"`
	Module   *entity.Module   `json:"module"`
}

type KeyQuery struct {
	Used          *bool
	OperatorIndex *uint64
}

func NewKeysClient(host string) *KeysClient {
	transport := &http.Transport{
		MaxIdleConnsPerHost: 100,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
	}
	client := &http.Client{
		Timeout:   10 * time.Minute,
		Transport: transport,
	}
	return &KeysClient{hc: client, host: host}
}

func (c *KeysClient) GetStatus(ctx context.Context) (*entity.Status, error) {
	status := &entity.Status{}
	if err := c.get(ctx, pathStatus, status); err != nil {
		return nil, err
	}
	return status, nil
}

func (c *KeysClient) ListModules(ctx context.Context) (*Response[[]*entity.Module], error) {
	resp := &Response[[]*entity.Module]{}
	if err := c.get(ctx, pathModules, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetModule accepts the numeric module id or the module address.
func (c *KeysClient) GetModule(ctx context.Context, moduleId string) (*Response[*entity.Module], error) {
	resp := &Response[*entity.Module]{}
	if err := c.get(ctx, fmt.Sprintf(pathModule, url.PathEscape(moduleId)), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *KeysClient) GetOperator(ctx context.Context, moduleId string, index uint64) (*Response[*OperatorWithModule], error) {
	resp := &Response[*OperatorWithModule]{}
	if err := c.get(ctx, fmt.Sprintf(pathModuleOperator, url.PathEscape(moduleId), index), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetModuleKeys downloads the whole streamed key list of one module.
func (c *KeysClient) GetModuleKeys(ctx context.Context, moduleId string, query KeyQuery) (*Response[*entity.ModuleKeys], error) {
	values := url.Values{}
	if query.Used != nil {
		values.Set("used", strconv.FormatBool(*query.Used))
	}
	if query.OperatorIndex != nil {
		values.Set("operatorIndex", strconv.FormatUint(*query.OperatorIndex, 10))
	}
	path := fmt.Sprintf(pathModuleKeys, url.PathEscape(moduleId))
	if len(values) > 0 {
		path += "?" + values.Encode()
	}
	resp := &Response[*entity.ModuleKeys]{}
	if err := c.get(ctx, path, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *KeysClient) FindKeys(ctx context.Context, moduleId string, pubkeys []string) (*Response[*entity.ModuleKeys], error) {
	body, err := json.Marshal(map[string][]string{"pubkeys": pubkeys})
	if err != nil {
		return nil, err
	}
	resp := &Response[*entity.ModuleKeys]{}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf(pathFindKeys, url.PathEscape(moduleId)), body, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *KeysClient) GetKey(ctx context.Context, pubkey string) (*Response[[]*entity.Key], error) {
	resp := &Response[[]*entity.Key]{}
	if err := c.get(ctx, fmt.Sprintf(pathKey, url.PathEscape(pubkey)), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *KeysClient) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *KeysClient) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer r.Body.Close()

	switch r.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooEarly:
		return ErrDataNotAvailable
	default:
		b, _ := io.ReadAll(r.Body)
		return fmt.Errorf("received non-OK response status: %s, body: %s", r.Status, string(b))
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding http response body: %w", err)
	}
	return nil
}
