package apiv1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/osa030/ytbeats/internal/api/apiv1"
)

// DownloadServiceName is the fully-qualified name of the DownloadService service.
const DownloadServiceName = "ytbeats.v1.DownloadService"

// DownloadService procedure paths.
const (
	DownloadServiceAddProcedure     = "/ytbeats.v1.DownloadService/Add"
	DownloadServiceListProcedure    = "/ytbeats.v1.DownloadService/List"
	DownloadServiceLibraryProcedure = "/ytbeats.v1.DownloadService/Library"
	DownloadServiceWatchProcedure   = "/ytbeats.v1.DownloadService/Watch"
)

// DownloadServiceHandler is implemented by the DownloadService server.
type DownloadServiceHandler interface {
	Add(context.Context, *connect.Request[apiv1.AddDownloadRequest]) (*connect.Response[apiv1.AddDownloadResponse], error)
	List(context.Context, *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.ListDownloadsResponse], error)
	Library(context.Context, *connect.Request[apiv1.LibraryRequest]) (*connect.Response[apiv1.LibraryResponse], error)
	Watch(context.Context, *connect.Request[apiv1.Empty], *connect.ServerStream[apiv1.Notification]) error
}

// NewDownloadServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewDownloadServiceHandler(svc DownloadServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	handlers := map[string]http.Handler{
		DownloadServiceAddProcedure:     connect.NewUnaryHandler(DownloadServiceAddProcedure, svc.Add, opts...),
		DownloadServiceListProcedure:    connect.NewUnaryHandler(DownloadServiceListProcedure, svc.List, opts...),
		DownloadServiceLibraryProcedure: connect.NewUnaryHandler(DownloadServiceLibraryProcedure, svc.Library, opts...),
		DownloadServiceWatchProcedure:   connect.NewServerStreamHandler(DownloadServiceWatchProcedure, svc.Watch, opts...),
	}
	return "/" + DownloadServiceName + "/", route(handlers)
}

// DownloadServiceClient is a client for the DownloadService service.
type DownloadServiceClient struct {
	add     *connect.Client[apiv1.AddDownloadRequest, apiv1.AddDownloadResponse]
	list    *connect.Client[apiv1.Empty, apiv1.ListDownloadsResponse]
	library *connect.Client[apiv1.LibraryRequest, apiv1.LibraryResponse]
	watch   *connect.Client[apiv1.Empty, apiv1.Notification]
}

// NewDownloadServiceClient constructs a client for the DownloadService service.
func NewDownloadServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *DownloadServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)

	return &DownloadServiceClient{
		add:     connect.NewClient[apiv1.AddDownloadRequest, apiv1.AddDownloadResponse](httpClient, baseURL+DownloadServiceAddProcedure, opts...),
		list:    connect.NewClient[apiv1.Empty, apiv1.ListDownloadsResponse](httpClient, baseURL+DownloadServiceListProcedure, opts...),
		library: connect.NewClient[apiv1.LibraryRequest, apiv1.LibraryResponse](httpClient, baseURL+DownloadServiceLibraryProcedure, opts...),
		watch:   connect.NewClient[apiv1.Empty, apiv1.Notification](httpClient, baseURL+DownloadServiceWatchProcedure, opts...),
	}
}

// Add calls ytbeats.v1.DownloadService.Add.
func (c *DownloadServiceClient) Add(ctx context.Context, req *connect.Request[apiv1.AddDownloadRequest]) (*connect.Response[apiv1.AddDownloadResponse], error) {
	return c.add.CallUnary(ctx, req)
}

// List calls ytbeats.v1.DownloadService.List.
func (c *DownloadServiceClient) List(ctx context.Context, req *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.ListDownloadsResponse], error) {
	return c.list.CallUnary(ctx, req)
}

// Library calls ytbeats.v1.DownloadService.Library.
func (c *DownloadServiceClient) Library(ctx context.Context, req *connect.Request[apiv1.LibraryRequest]) (*connect.Response[apiv1.LibraryResponse], error) {
	return c.library.CallUnary(ctx, req)
}

// Watch calls ytbeats.v1.DownloadService.Watch.
func (c *DownloadServiceClient) Watch(ctx context.Context, req *connect.Request[apiv1.Empty]) (*connect.ServerStreamForClient[apiv1.Notification], error) {
	return c.watch.CallServerStream(ctx, req)
}
