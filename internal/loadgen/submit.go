package loadgen

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/pkg/logger"
)

// Submission outcomes.
const (
	resultCreated  = "created"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

type submission struct {
	index  int
	policy model.Policy
	result string
}

// submitPolicies posts the inputs concurrently and returns the created
// policies in input order. Failed submissions are left out.
func submitPolicies(ctx context.Context, config *Config, inputs []model.PolicyInput, stats *Stats) []model.Policy {
	log := logger.Get()
	log.Info(ctx, "submitting policies", logger.Int("count", len(inputs)), logger.Int("workers", config.Workers))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	var created, rejected, failed, submitted int64
	var lastReport atomic.Int64

	results := make([]submission, len(inputs))
	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < minInt(config.Workers, max(len(inputs), 1)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range indexChan {
				if ctx.Err() != nil {
					return
				}
				res := submitSinglePolicy(ctx, client, inputs[index])
				res.index = index
				results[index] = res

				total := atomic.AddInt64(&submitted, 1)
				switch res.result {
				case resultCreated:
					atomic.AddInt64(&created, 1)
				case resultRejected:
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if config.Verbose && now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "submission progress",
						logger.Int("submitted", int(total)),
						logger.Int("of", len(inputs)),
						logger.Int("created", int(atomic.LoadInt64(&created))),
						logger.Int("failed", int(atomic.LoadInt64(&failed))))
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range inputs {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	policies := make([]model.Policy, 0, len(inputs))
	for _, res := range results {
		if res.result == resultCreated {
			policies = append(policies, res.policy)
		}
	}

	stats.PoliciesCreated = int(atomic.LoadInt64(&created))
	stats.PoliciesRejected = int(atomic.LoadInt64(&rejected))
	stats.PoliciesFailed = int(atomic.LoadInt64(&failed))

	log.Info(ctx, "policy submission completed",
		logger.Int("created", stats.PoliciesCreated),
		logger.Int("rejected", stats.PoliciesRejected),
		logger.Int("failed", stats.PoliciesFailed))
	return policies
}

// submitSinglePolicy posts one policy input.
func submitSinglePolicy(ctx context.Context, client *HTTPClient, in model.PolicyInput) submission {
	resp, err := client.Send(ctx, http.MethodPost, "/api/policies", in)
	if err != nil {
		return submission{result: resultFailed}
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return submission{result: resultFailed}
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		var p model.Policy
		if err := json.Unmarshal(body, &p); err != nil || p.ID == "" {
			return submission{result: resultFailed}
		}
		return submission{policy: p, result: resultCreated}
	case http.StatusBadRequest:
		return submission{result: resultRejected}
	default:
		return submission{result: resultFailed}
	}
}

// advanceStatuses moves the leading share of created policies through
// Analyzed to Drafted, one policy per worker at a time.
func advanceStatuses(ctx context.Context, config *Config, policies []model.Policy, stats *Stats) {
	count := int(float64(len(policies)) * config.AdvanceRate)
	if count <= 0 {
		return
	}
	log := logger.Get()
	log.Info(ctx, "advancing policy statuses", logger.Int("count", count))

	client := newHTTPClient(config.BaseURL, config.Timeout)
	var advanced, failed int64

	idChan := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < minInt(config.Workers, count); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idChan {
				if err := advanceSinglePolicy(ctx, client, id); err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Warn(ctx, "status update failed", logger.String("policyId", id), logger.Error(err))
					}
					continue
				}
				atomic.AddInt64(&advanced, 1)
			}
		}()
	}

	go func() {
		defer close(idChan)
		for _, p := range policies[:count] {
			select {
			case <-ctx.Done():
				return
			case idChan <- p.ID:
			}
		}
	}()

	wg.Wait()

	stats.StatusAdvanced = int(atomic.LoadInt64(&advanced))
	stats.StatusFailed = int(atomic.LoadInt64(&failed))
	log.Info(ctx, "status updates completed",
		logger.Int("advanced", stats.StatusAdvanced),
		logger.Int("failed", stats.StatusFailed))
}

func advanceSinglePolicy(ctx context.Context, client *HTTPClient, id string) error {
	path := "/api/policies/" + url.PathEscape(id) + "/status"
	for _, st := range []model.Status{model.StatusAnalyzed, model.StatusDrafted} {
		resp, err := client.Send(ctx, http.MethodPut, path, map[string]string{"status": string(st)})
		if err != nil {
			return err
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return &statusError{code: resp.StatusCode, body: string(body)}
		}
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return http.StatusText(e.code) + ": " + e.body
}
