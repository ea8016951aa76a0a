package planservice

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cory-johannsen/stashplan/internal/allocation"
)

// Client calls a remote planner service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a Client over cc.
//
// Precondition: cc must be non-nil.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens a plaintext connection to a planner at addr.
//
// Postcondition: Returns a connection the caller must Close, or a non-nil error.
func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Plan requests a full allocation report.
func (c *Client) Plan(ctx context.Context, in *PlanRequest, opts ...grpc.CallOption) (*allocation.Report, error) {
	return invoke[allocation.Report](ctx, c.cc, "Plan", in, opts)
}

// Suggest requests a slot layout.
func (c *Client) Suggest(ctx context.Context, in *SuggestRequest, opts ...grpc.CallOption) (*allocation.Suggestion, error) {
	return invoke[allocation.Suggestion](ctx, c.cc, "Suggest", in, opts)
}

// Recommend requests cleanup recommendations.
func (c *Client) Recommend(ctx context.Context, in *RecommendRequest, opts ...grpc.CallOption) (*RecommendResponse, error) {
	return invoke[RecommendResponse](ctx, c.cc, "Recommend", in, opts)
}

// GetPreferences reads an account's stored preferences.
func (c *Client) GetPreferences(ctx context.Context, in *GetPreferencesRequest, opts ...grpc.CallOption) (*PreferencesResponse, error) {
	return invoke[PreferencesResponse](ctx, c.cc, "GetPreferences", in, opts)
}

// PutPreferences replaces an account's stored preferences.
func (c *Client) PutPreferences(ctx context.Context, in *PutPreferencesRequest, opts ...grpc.CallOption) (*PreferencesResponse, error) {
	return invoke[PreferencesResponse](ctx, c.cc, "PutPreferences", in, opts)
}
