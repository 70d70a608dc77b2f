package retrieval

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 keeps objects in a map, enough to stand in for the bucket API.
type fakeS3 struct {
	objects map[string][]byte
}

func newFakeS3(objects map[string]string) *fakeS3 {
	f := &fakeS3{objects: make(map[string][]byte)}
	for k, v := range objects {
		f.objects[k] = []byte(v)
	}
	return f
}

func (f *fakeS3) GetObject(ctx context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, stderrors.New("NoSuchKey")
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, stderrors.New("NotFound")
	}
	return &awss3.HeadObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	prefix := aws.ToString(in.Prefix)
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(k),
			Size: aws.Int64(int64(len(f.objects[k]))),
		})
	}
	return out, nil
}

func newTestS3(objects map[string]string) *S3 {
	return NewS3FromClient(newFakeS3(objects), "bucket", "data")
}

func TestS3_ListStripsPrefixAndManifest(t *testing.T) {
	s := newTestS3(map[string]string{
		"data/a":         "1",
		"data/b":         "2",
		"data/.manifest": "a\nb\n",
		"other/c":        "3",
	})

	ids, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("expected %v, got %v", want, ids)
			break
		}
	}
}

func TestS3_Fetch(t *testing.T) {
	s := newTestS3(map[string]string{"data/a": "payload-a"})

	raw, err := s.Fetch(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "payload-a" {
		t.Errorf("unexpected payload %q", raw)
	}

	if _, err := s.Fetch(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestS3_CacheRoundTrip(t *testing.T) {
	s := newTestS3(map[string]string{"data/a": "1", "data/b": "2"})

	if s.IsCached() {
		t.Fatal("expected no cache initially")
	}

	ctx := context.Background()
	ids, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Cache(ctx, buildEntities(t, s, ids)); err != nil {
		t.Fatal(err)
	}
	if !s.IsCached() {
		t.Fatal("expected cache after Cache()")
	}

	loaded, err := s.LoadFromCache(ctx, rawFactory)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(loaded))
	}

	sm, err := loaded[0].Sample(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sm.Data == nil {
		t.Error("expected sample data from cached entity")
	}
}
