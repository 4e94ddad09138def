package depthcache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stevecastle/quiltpainter/appconfig"
)

// TestKey verifies keys depend on both the input and the source.
func TestKey(t *testing.T) {
	a := Key([]byte("image"), "comfy")
	if len(a) != 64 {
		t.Errorf("len(Key()) = %d; want 64", len(a))
	}
	if a != Key([]byte("image"), "comfy") {
		t.Error("Key() is not deterministic")
	}
	if a == Key([]byte("image"), "onnx") {
		t.Error("Key() ignores the source")
	}
	if a == Key([]byte("imagf"), "comfy") {
		t.Error("Key() ignores the input")
	}
}

// TestFileStore verifies miss, put and hit.
func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	if _, err := s.Get(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(miss) error = %v; want ErrNotFound", err)
	}
	if err := s.Put(ctx, "abc", []byte("rgbd")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get(hit) error = %v", err)
	}
	if string(got) != "rgbd" {
		t.Errorf("Get() = %q; want rgbd", got)
	}
	if !strings.HasSuffix(s.Path("abc"), "abc_rgbd.png") {
		t.Errorf("Path() = %q", s.Path("abc"))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("cache dir has %d entries; want 1 (no temp files left)", len(entries))
	}
}

// TestNullStore verifies the null store never hits.
func TestNullStore(t *testing.T) {
	ctx := context.Background()
	var s Store = NullStore{}
	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Errorf("Put() error = %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v; want ErrNotFound", err)
	}
}

// TestNew verifies backend selection.
func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, appconfig.Config{Cache: appconfig.CacheFile, CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New(file) error = %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("New(file) = %T; want *FileStore", s)
	}

	s, err = New(ctx, appconfig.Config{Cache: appconfig.CacheNone})
	if err != nil {
		t.Fatalf("New(none) error = %v", err)
	}
	if _, ok := s.(NullStore); !ok {
		t.Errorf("New(none) = %T; want NullStore", s)
	}

	if _, err := New(ctx, appconfig.Config{Cache: "floppy"}); err == nil {
		t.Error("New(floppy) returned nil error")
	}
	if _, err := New(ctx, appconfig.Config{Cache: appconfig.CacheS3}); err == nil {
		t.Error("New(s3) without a bucket returned nil error")
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

// TestS3Store verifies object naming and not-found mapping.
func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	s := newS3Store(fake, "quilts", "rgbd")

	if _, err := s.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(miss) error = %v; want ErrNotFound", err)
	}
	if err := s.Put(ctx, "k1", []byte("png")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := fake.objects["quilts/rgbd/k1_rgbd.png"]; !ok {
		t.Errorf("objects = %v; want key quilts/rgbd/k1_rgbd.png", fake.objects)
	}
	got, err := s.Get(ctx, "k1")
	if err != nil || string(got) != "png" {
		t.Errorf("Get(hit) = %q, %v; want png, nil", got, err)
	}
}

// TestS3StoreErrors verifies generic NotFound codes map to ErrNotFound and
// other failures are passed through.
func TestS3StoreErrors(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	s := newS3Store(fake, "b", "")

	fake.getErr = &smithy.GenericAPIError{Code: "NotFound"}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(NotFound) error = %v; want ErrNotFound", err)
	}

	fake.getErr = &smithy.GenericAPIError{Code: "AccessDenied"}
	_, err := s.Get(ctx, "k")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get(AccessDenied) error = %v; want a non-NotFound error", err)
	}
}
