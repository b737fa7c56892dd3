package client

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/heibot/sanction"
)

// DefaultBatchConcurrency bounds parallel users in EvaluateBatch.
const DefaultBatchConcurrency = 8

// EvaluateBatch evaluates many messages. Messages from the same guild member
// are evaluated in input order so each sees the previous one's violation;
// different members run in parallel. results[i] corresponds to inputs[i].
// Invalid inputs yield a result carrying the validation error.
func (c *Client) EvaluateBatch(ctx context.Context, inputs []EvaluateInput, concurrency int) ([]*sanction.PunishmentResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	type member struct{ guild, user string }
	var order []member
	groups := make(map[member][]int)
	for i, in := range inputs {
		m := member{in.GuildID, in.UserID}
		if _, ok := groups[m]; !ok {
			order = append(order, m)
		}
		groups[m] = append(groups[m], i)
	}

	results := make([]*sanction.PunishmentResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, m := range order {
		idxs := groups[m]
		g.Go(func() error {
			for _, i := range idxs {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := c.Evaluate(gctx, inputs[i])
				if err != nil {
					res = &sanction.PunishmentResult{
						Restrictions: []sanction.FeatureRestriction{},
						Error:        err.Error(),
					}
				}
				results[i] = res
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
