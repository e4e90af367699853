package sink

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/minio/minio-go/v7"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/camlink/pkg/mqtt/topic"
	"github.com/autopeer-io/camlink/pkg/options"
)

type fakeStore struct {
	exists  bool
	made    []string
	objects map[string][]byte
	meta    map[string]map[string]string
	putErr  error
}

func (s *fakeStore) BucketExists(context.Context, string) (bool, error) { return s.exists, nil }

func (s *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	s.made = append(s.made, bucket)
	return nil
}

func (s *fakeStore) PutObject(_ context.Context, _, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if s.putErr != nil {
		return minio.UploadInfo{}, s.putErr
	}
	b, _ := io.ReadAll(r)
	if s.objects == nil {
		s.objects = map[string][]byte{}
		s.meta = map[string]map[string]string{}
	}
	s.objects[object] = b
	s.meta[object] = opts.UserMetadata
	return minio.UploadInfo{Key: object, Size: size, ETag: "etag"}, nil
}

func (s *fakeStore) PresignedGetObject(_ context.Context, bucket, object string, _ time.Duration, _ url.Values) (*url.URL, error) {
	return &url.URL{Scheme: "http", Host: "minio:9000", Path: "/" + bucket + "/" + object}, nil
}

func TestS3(t *testing.T) {
	opts := options.NewS3Options()
	store := &fakeStore{}
	s := newS3(store, opts, nil)

	if err := s.CheckBucket(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(store.made) != 1 || store.made[0] != "camlink" {
		t.Errorf("made buckets %v, want [camlink]", store.made)
	}

	img := testImage()
	if err := s.Deliver(context.Background(), img); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	key := "images/34ab95fa3a6c/20250601_120007_123456.jpg"
	if string(store.objects[key]) != string(img.Data) {
		t.Fatalf("object %s not stored, have %v", key, store.objects)
	}
	if store.meta[key]["voltage"] != "76" || store.meta[key]["hash-ok"] != "true" {
		t.Errorf("metadata = %v", store.meta[key])
	}
	if img.URL != "http://minio:9000/camlink/"+key {
		t.Errorf("URL = %q", img.URL)
	}
}

func TestS3PutFailureKeepsURLEmpty(t *testing.T) {
	s := newS3(&fakeStore{exists: true, putErr: errors.New("403")}, options.NewS3Options(), nil)
	img := testImage()
	if err := s.Deliver(context.Background(), img); err == nil {
		t.Fatal("Deliver() succeeded on a failed put")
	}
	if img.URL != "" {
		t.Errorf("URL = %q after a failed put", img.URL)
	}
}

type published struct {
	topic   string
	retain  bool
	payload []byte
}

type fakeClient struct {
	mqtt.Client
	started bool
	out     []published
}

func (c *fakeClient) Start(context.Context) error {
	c.started = true
	return nil
}

func (c *fakeClient) AwaitConnection(context.Context) error { return nil }

func (c *fakeClient) Disconnect(context.Context) { c.started = false }

func (c *fakeClient) Publish(_ context.Context, topic string, _ int, retain bool, payload []byte) error {
	c.out = append(c.out, published{topic, retain, payload})
	return nil
}

func TestMQTT(t *testing.T) {
	c := &fakeClient{}
	m := newMQTT(c, mqtttopic.NewBuilder("camlink/v1"), 1, "camgateway", nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	img := testImage()
	img.URL = "http://minio:9000/x.jpg"
	if err := m.Deliver(context.Background(), img); err != nil {
		t.Fatal(err)
	}
	if err := m.ObserveHeader(context.Background(), nodeMAC, protocol.NewHeader(protocol.DummyHash, 3, time.Time{})); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		topic  string
		retain bool
		check  func(t *testing.T, b []byte)
	}{
		{"camlink/v1/online/camgateway", true, func(t *testing.T, b []byte) {
			var s OnlineStatus
			_ = json.Unmarshal(b, &s)
			if !s.Online {
				t.Errorf("first presence = %s, want online", b)
			}
		}},
		{"camlink/v1/image/34ab95fa3a6c", false, func(t *testing.T, b []byte) {
			var e ImageEvent
			if err := json.Unmarshal(b, &e); err != nil {
				t.Fatal(err)
			}
			if e.MAC != "34:ab:95:fa:3a:6c" || e.Voltage != 76 || !e.HashOK || e.URL != img.URL || e.Size != len(img.Data) {
				t.Errorf("image event = %+v", e)
			}
		}},
		{"camlink/v1/status/34ab95fa3a6c", true, func(t *testing.T, b []byte) {
			var e StatusEvent
			_ = json.Unmarshal(b, &e)
			if !e.Placeholder || e.Voltage != 3 {
				t.Errorf("status event = %+v", e)
			}
		}},
		{"camlink/v1/online/camgateway", true, func(t *testing.T, b []byte) {
			var s OnlineStatus
			_ = json.Unmarshal(b, &s)
			if s.Online || s.Reason != "Shutdown" {
				t.Errorf("last presence = %s, want offline on shutdown", b)
			}
		}},
	}

	if len(c.out) != len(tests) {
		t.Fatalf("published %d messages, want %d", len(c.out), len(tests))
	}
	for i, tt := range tests {
		if c.out[i].topic != tt.topic || c.out[i].retain != tt.retain {
			t.Errorf("message %d on %s (retain %v), want %s (retain %v)", i, c.out[i].topic, c.out[i].retain, tt.topic, tt.retain)
			continue
		}
		tt.check(t, c.out[i].payload)
	}
}

type fakeWriter struct{ points []*write.Point }

func (w *fakeWriter) WritePoint(_ context.Context, p ...*write.Point) error {
	w.points = append(w.points, p...)
	return nil
}

func pointFields(p *write.Point) map[string]any {
	out := map[string]any{}
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func pointTags(p *write.Point) map[string]string {
	out := map[string]string{}
	for _, tg := range p.TagList() {
		out[tg.Key] = tg.Value
	}
	return out
}

func TestInflux(t *testing.T) {
	w := &fakeWriter{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	i := newInflux(w, "camnode", clocktesting.NewFakePassiveClock(now), nil)

	if err := i.Deliver(context.Background(), testImage()); err != nil {
		t.Fatal(err)
	}
	unknown := protocol.NewHeader(protocol.DummyHash, protocol.VoltageUnknown, time.Time{})
	if err := i.ObserveHeader(context.Background(), nodeMAC, unknown); err != nil {
		t.Fatal(err)
	}

	if len(w.points) != 2 {
		t.Fatalf("wrote %d points, want 2", len(w.points))
	}

	img := w.points[0]
	if img.Name() != "camnode" || pointTags(img)["kind"] != "image" || pointTags(img)["mac"] != "34:ab:95:fa:3a:6c" {
		t.Errorf("image point %s tags %v", img.Name(), pointTags(img))
	}
	if f := pointFields(img); f["hash_ok"] != true {
		t.Errorf("image fields = %v", f)
	}

	hdr := w.points[1]
	if pointTags(hdr)["voltage_known"] != "false" {
		t.Errorf("header tags = %v", pointTags(hdr))
	}
	if _, ok := pointFields(hdr)["voltage_pct"]; ok {
		t.Error("unknown voltage was written as a value")
	}
	if !hdr.Time().Equal(now) {
		t.Errorf("header point time = %v, want %v", hdr.Time(), now)
	}
}
