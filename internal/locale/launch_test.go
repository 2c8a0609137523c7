package locale

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	locale   *string
	debug    *bool
	failWith error
}

func (r *recorder) SetLocale(_ context.Context, tag string) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.locale = &tag
	return nil
}

func (r *recorder) SetDebug(_ context.Context, on bool) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.debug = &on
	return nil
}

func TestParseLaunchURLStripsConsumedParams(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, in, want string
		locale         string
		hasLocale      bool
		debug          bool
		hasDebug       bool
	}{
		{
			name: "both params with others and fragment",
			in:   "https://app.example.com/issue?b=2&lang=en_US&a=1&debug=1#step-3",
			want: "https://app.example.com/issue?b=2&a=1#step-3",
			locale: "en-US", hasLocale: true, debug: true, hasDebug: true,
		},
		{
			name: "only consumed params",
			in:   "https://app.example.com/?lang=pt-BR&debug=false",
			want: "https://app.example.com/",
			locale: "pt-BR", hasLocale: true, debug: false, hasDebug: true,
		},
		{
			name: "bare debug flag keeps encoded neighbours",
			in:   "https://app.example.com/?q=a%20b&debug",
			want: "https://app.example.com/?q=a%20b",
			debug: true, hasDebug: true,
		},
		{
			name: "invalid locale dropped but not applied",
			in:   "https://app.example.com/?lang=!!&x=1",
			want: "https://app.example.com/?x=1",
		},
		{
			name: "nothing to consume",
			in:   "https://app.example.com/path?x=1&y=2#frag",
			want: "https://app.example.com/path?x=1&y=2#frag",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLaunchURL(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.URL)
			require.Equal(t, tc.hasLocale, got.HasLocale)
			require.Equal(t, tc.locale, got.Locale)
			require.Equal(t, tc.hasDebug, got.HasDebug)
			require.Equal(t, tc.debug, got.Debug)
		})
	}
}

func TestLaunchApply(t *testing.T) {
	t.Parallel()

	l, err := ParseLaunchURL("https://app.example.com/?lang=es&debug=on")
	require.NoError(t, err)

	r := &recorder{}
	require.NoError(t, l.Apply(context.Background(), r))
	require.NotNil(t, r.locale)
	require.Equal(t, "es", *r.locale)
	require.NotNil(t, r.debug)
	require.True(t, *r.debug)

	empty, err := ParseLaunchURL("https://app.example.com/")
	require.NoError(t, err)
	r = &recorder{}
	require.NoError(t, empty.Apply(context.Background(), r))
	require.Nil(t, r.locale)
	require.Nil(t, r.debug)
}

func TestParseLaunchURLRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseLaunchURL("://missing-scheme")
	require.Error(t, err)
}
