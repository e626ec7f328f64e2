package permit

import "context"

type operatorKey struct{}

// NewContextWithOperator stamps the authenticated operator name on the
// request context.
func NewContextWithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

// OperatorFromContext returns the operator name, or Guest when the
// request never authenticated.
func OperatorFromContext(ctx context.Context) string {
	if op, ok := ctx.Value(operatorKey{}).(string); ok && op != "" {
		return op
	}
	return Guest
}
