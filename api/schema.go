package api

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"
)

const schemaString = `
	schema {
		query: Query
	}

	type Query {
		score(redditComment: String): Score
		predictReception(text: String!): Reception
	}

	type Score {
		comment: String!
		confidence: Float!
		significant: Boolean!
	}

	type Reception {
		upvoteRange: String!
		agreementScore: Float!
		confidence: Float!
	}
`

// NewSchema parses the query schema against svc.
func NewSchema(svc *Service) *graphql.Schema {
	return graphql.MustParseSchema(schemaString, &queryResolver{svc: svc})
}

type queryResolver struct {
	svc *Service
}

// Score treats an omitted or null comment as the placeholder comment.
func (q *queryResolver) Score(ctx context.Context, args struct{ RedditComment *string }) (*scoreResolver, error) {
	s, err := q.svc.Score(ctx, args.RedditComment)
	if err != nil {
		return nil, err
	}
	return &scoreResolver{s}, nil
}

func (q *queryResolver) PredictReception(args struct{ Text string }) *receptionResolver {
	return &receptionResolver{PredictReception(args.Text)}
}

type scoreResolver struct{ s Score }

func (r *scoreResolver) Comment() string     { return r.s.Comment }
func (r *scoreResolver) Confidence() float64 { return r.s.Confidence }
func (r *scoreResolver) Significant() bool   { return r.s.Significant }

type receptionResolver struct{ r Reception }

func (r *receptionResolver) UpvoteRange() string     { return r.r.UpvoteRange }
func (r *receptionResolver) AgreementScore() float64 { return r.r.AgreementScore }
func (r *receptionResolver) Confidence() float64     { return r.r.Confidence }
