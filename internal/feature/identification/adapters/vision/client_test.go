package vision

import (
	"context"
	"errors"
	"net/http"
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/domain/entity"
)

func newTestIdentifier(fn annotateFunc) *VisionIdentifier {
	return &VisionIdentifier{annotate: fn, maxLabels: DefaultMaxLabels}
}

func TestVisionIdentifier_Identify_Success(t *testing.T) {
	t.Parallel()

	image := []byte("img")
	var gotReq *visionpb.BatchAnnotateImagesRequest
	v := newTestIdentifier(func(_ context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		gotReq = req
		return &visionpb.BatchAnnotateImagesResponse{
			Responses: []*visionpb.AnnotateImageResponse{{
				LabelAnnotations: []*visionpb.EntityAnnotation{
					{Description: "Houseplant", Score: 0.93},
					{Description: "Ficus", Score: 0.88},
				},
			}},
		}, nil
	})

	resp, err := v.Identify(context.Background(), image, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, entity.LabelResponse{Provider: ProviderName, Labels: []entity.Label{
		{Description: "Houseplant", Score: 0.93},
		{Description: "Ficus", Score: 0.88},
	}}, resp)

	require.Len(t, gotReq.GetRequests(), 1)
	assert.Equal(t, image, gotReq.GetRequests()[0].GetImage().GetContent())
	require.Len(t, gotReq.GetRequests()[0].GetFeatures(), 1)
	assert.Equal(t, visionpb.Feature_LABEL_DETECTION, gotReq.GetRequests()[0].GetFeatures()[0].GetType())
}

func TestVisionIdentifier_Identify_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		resp       *visionpb.BatchAnnotateImagesResponse
		err        error
		wantKind   domain.Kind
		wantStatus int
	}{
		{
			name:       "quota exhausted",
			err:        status.Error(codes.ResourceExhausted, "quota exceeded"),
			wantKind:   domain.KindTransport,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "unauthenticated",
			err:        status.Error(codes.Unauthenticated, "no credentials"),
			wantKind:   domain.KindTransport,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:     "plain network error",
			err:      errors.New("connection reset"),
			wantKind: domain.KindTransport,
		},
		{
			name: "per image error",
			resp: &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{{
				Error: &statuspb.Status{Code: int32(codes.InvalidArgument), Message: "Bad image data."},
			}}},
			wantKind:   domain.KindTransport,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:     "no responses",
			resp:     &visionpb.BatchAnnotateImagesResponse{},
			wantKind: domain.KindParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := newTestIdentifier(func(context.Context, *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
				return tt.resp, tt.err
			})

			_, err := v.Identify(context.Background(), []byte("img"), "image/png")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
			if tt.wantKind == domain.KindTransport {
				var te *domain.TransportError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, tt.wantStatus, te.StatusCode)
			}
		})
	}
}

func TestVisionIdentifier_EmptyImage(t *testing.T) {
	t.Parallel()

	v := newTestIdentifier(nil)
	_, err := v.Identify(context.Background(), nil, "image/png")
	assert.ErrorIs(t, err, domain.ErrNoImage)
	assert.NoError(t, v.Close())
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusServiceUnavailable, httpStatus(codes.Unavailable))
	assert.Equal(t, http.StatusInternalServerError, httpStatus(codes.Internal))
	assert.Equal(t, 0, httpStatus(codes.Canceled))
}
