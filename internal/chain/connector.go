package chain

import (
	"context"
	"sync"
)

// Dialer 便于测试替换
type Dialer func(ctx context.Context, opts Options) (Client, error)

func DefaultDialer(ctx context.Context, opts Options) (Client, error) {
	return Dial(ctx, opts)
}

// Connector 首次使用时建立连接并缓存；失败后下次调用重试
type Connector struct {
	opts Options
	dial Dialer

	mu     sync.Mutex
	client Client
}

func NewConnector(opts Options, dial Dialer) *Connector {
	if dial == nil {
		dial = DefaultDialer
	}
	return &Connector{opts: opts, dial: dial}
}

// NewStaticConnector 总是返回给定的 client
func NewStaticConnector(client Client) *Connector {
	return &Connector{client: client}
}

func (c *Connector) Client(ctx context.Context) (Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.dial == nil {
		return nil, ErrNotConnected
	}

	client, err := c.dial(ctx, c.opts)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

// Connected 不触发连接
func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil
}

func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if closer, ok := c.client.(interface{ Close() }); ok {
		closer.Close()
	}
	c.client = nil
}
