package loader

import (
	"time"
)

type backoff struct {
	base       time.Duration
	maxRetries int
}

func (b backoff) do(fn func(i int) error) error {
	var err error
	for i := 0; i <= b.maxRetries; i++ {
		err = fn(i)
		if err == nil {
			return nil
		}
		if i < b.maxRetries {
			time.Sleep(time.Duration(1<<i) * b.base)
		}
	}
	return err
}
