package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/turtacn/foldcore/internal/domain/conformation"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foldcore/pkg/errors"
)

type MockObjectAPI struct {
	mock.Mock
}

func (m *MockObjectAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectAPI) Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	if rc := args.Get(0); rc != nil {
		return rc.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockObjectAPI) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	args := m.Called(ctx, bucket, key, r, size)
	return args.Error(0)
}

type ClientTestSuite struct {
	suite.Suite
	api    *MockObjectAPI
	client *Client
	ctx    context.Context
}

func (s *ClientTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.api = new(MockObjectAPI)
	s.api.On("BucketExists", mock.Anything, "decoys").Return(true, nil).Once()

	c, err := NewClientWithAPI(s.ctx, s.api, "decoys", "/set-a/", logging.NewNopLogger())
	s.Require().NoError(err)
	s.client = c
}

func (s *ClientTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func body(text string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(text))
}

func (s *ClientTestSuite) TestNewClient_BucketMissing() {
	api := new(MockObjectAPI)
	api.On("BucketExists", mock.Anything, "absent").Return(false, nil)

	_, err := NewClientWithAPI(s.ctx, api, "absent", "", nil)
	s.True(errors.IsNotFound(err))
}

func (s *ClientTestSuite) TestNewClient_Unreachable() {
	api := new(MockObjectAPI)
	api.On("BucketExists", mock.Anything, "decoys").Return(false, io.ErrUnexpectedEOF)

	_, err := NewClientWithAPI(s.ctx, api, "decoys", "", nil)
	s.True(errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func (s *ClientTestSuite) TestOpen_PrefixedKey() {
	s.api.On("Fetch", mock.Anything, "decoys", "set-a/a.cmap").Return(body("0 M 5 A\n"), nil)

	rc, err := s.client.Open(s.ctx, "a.cmap")
	s.Require().NoError(err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	s.Equal("0 M 5 A\n", string(data))
}

func (s *ClientTestSuite) TestOpen_CleansName() {
	s.api.On("Fetch", mock.Anything, "decoys", "set-a/x/b.cmap").Return(body(""), nil)

	rc, err := s.client.Open(s.ctx, "/../x/./b.cmap")
	s.Require().NoError(err)
	rc.Close()
}

func (s *ClientTestSuite) TestOpen_NoSuchKey() {
	notFound := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
	s.api.On("Fetch", mock.Anything, "decoys", "set-a/gone.cmap").Return(nil, notFound)

	_, err := s.client.Open(s.ctx, "gone.cmap")
	s.True(errors.IsNotFound(err))
}

func (s *ClientTestSuite) TestOpen_OtherFailure() {
	s.api.On("Fetch", mock.Anything, "decoys", "set-a/a.cmap").Return(nil, io.ErrClosedPipe)

	_, err := s.client.Open(s.ctx, "a.cmap")
	s.True(errors.IsCode(err, errors.ErrCodeExternalService))
}

func (s *ClientTestSuite) TestUpload() {
	payload := bytes.NewReader([]byte("a.cmap\n"))
	s.api.On("Put", mock.Anything, "decoys", "set-a/maps.txt", payload, int64(7)).Return(nil)

	s.NoError(s.client.Upload(s.ctx, "maps.txt", payload, 7))
}

func (s *ClientTestSuite) TestUpload_Failure() {
	s.api.On("Put", mock.Anything, "decoys", "set-a/maps.txt", mock.Anything, int64(1)).Return(io.ErrShortWrite)

	err := s.client.Upload(s.ctx, "maps.txt", strings.NewReader("x"), 1)
	s.True(errors.IsCode(err, errors.ErrCodeExternalService))
}

func (s *ClientTestSuite) TestLoadDecoyLibraryFromBucket() {
	s.api.On("Fetch", mock.Anything, "decoys", "set-a/maps.txt").Return(body("a.cmap\nb.cmap\n"), nil)
	s.api.On("Fetch", mock.Anything, "decoys", "set-a/a.cmap").Return(body("4\n0 M 2 A\n"), nil)
	s.api.On("Fetch", mock.Anything, "decoys", "set-a/b.cmap").Return(body("4\n0 M 3 K\n1 L 3 K\n"), nil)

	lib, err := conformation.LoadDecoyLibrary(s.ctx, s.client, "maps.txt", 4, 2)
	s.Require().NoError(err)
	s.Equal(2, lib.Size())
	s.Equal(2, lib.Structure(1).Len())
}

func (s *ClientTestSuite) TestObjectKey_NoPrefix() {
	c := &Client{}
	s.Equal("a.cmap", c.objectKey("a.cmap"))
	s.Equal("dir/a.cmap", c.objectKey("/dir/a.cmap"))
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

//Personal.AI order the ending
