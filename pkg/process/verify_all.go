package process

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doodlesbykumbi/amtt/pkg/es256"
)

// Result is the outcome for one token passed to VerifyAll.
type Result struct {
	Token string
	Valid bool
	Err   error
}

// VerifyAll checks tokens concurrently against one key. Results keep the
// input order. A malformed token only sets Err on its own Result; the
// returned error is the context's.
func VerifyAll(ctx context.Context, key *es256.VerifyingKey, tokens []string, teamID string, tolerance time.Duration) ([]Result, error) {
	results := make([]Result, len(tokens))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, tok := range tokens {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			valid, err := Verify(key, tok, teamID, tolerance)
			results[i] = Result{Token: tok, Valid: valid, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
