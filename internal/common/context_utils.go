package common

import "context"

type contextKey string

// SubjectKey holds the authenticated caller's token subject.
const SubjectKey contextKey = "subject"

// WithSubject stores the token subject on the context.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, SubjectKey, subject)
}

// GetSubjectFromContext returns the token subject, if the request was authenticated.
func GetSubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey).(string)
	return subject, ok && subject != ""
}
