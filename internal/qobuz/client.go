package qobuz

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	httpclient "github.com/lingion/qobuz-dl/internal/http"
	"github.com/lingion/qobuz-dl/internal/model"
)

const (
	apiBase = "https://www.qobuz.com/api.json/0.2/"

	// browseLimit caps artist/label/playlist listing pages. The API
	// maximum is 500, which covers all but pathological catalogs.
	browseLimit = 500
)

// ErrNotStreamable marks content the catalog refuses to stream at all.
// It is a hard unavailable condition, distinct from a network failure,
// and is never retried.
var ErrNotStreamable = errors.New("content is not streamable")

// Catalog is the remote catalog contract the download engine consumes.
type Catalog interface {
	// StreamInfo resolves the transfer descriptor for one track at
	// the requested quality tier.
	StreamInfo(ctx context.Context, trackID string, tier int) (*model.StreamDescriptor, error)

	// AlbumMetadata fetches full album metadata including the
	// expanded track list and the streamable flag.
	AlbumMetadata(ctx context.Context, albumID string) (*model.Album, error)

	// TrackMetadata fetches metadata for a standalone track,
	// including its embedded album reference.
	TrackMetadata(ctx context.Context, trackID string) (*model.Track, error)

	// ArtistAlbums lists an artist's releases. Returns the artist
	// name and the album summaries.
	ArtistAlbums(ctx context.Context, artistID string) (string, []*model.AlbumSummary, error)

	// LabelAlbums lists a label's releases.
	LabelAlbums(ctx context.Context, labelID string) (string, []*model.AlbumSummary, error)

	// PlaylistTracks lists a playlist's tracks. Returns the playlist
	// name and the tracks.
	PlaylistTracks(ctx context.Context, playlistID string) (string, []*model.Track, error)
}

// Client is the HTTP implementation of Catalog against the Qobuz JSON
// API.
type Client struct {
	http      *httpclient.Client
	appID     string
	secret    string
	userToken string
}

// NewClient creates a catalog client with the given credentials.
func NewClient(http *httpclient.Client, appID, secret, userToken string) *Client {
	return &Client{
		http:      http,
		appID:     appID,
		secret:    secret,
		userToken: userToken,
	}
}

func (c *Client) headers() map[string]string {
	h := map[string]string{"X-App-Id": c.appID}
	if c.userToken != "" {
		h["X-User-Auth-Token"] = c.userToken
	}
	return h
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (gjson.Result, error) {
	body, err := c.http.GetWithHeaders(ctx, apiBase+endpoint, query, c.headers())
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: %w", endpoint, err)
	}
	return gjson.ParseBytes(body), nil
}

// StreamInfo calls track/getFileUrl. The request carries an MD5
// signature over the method name, parameters, timestamp and app
// secret, as the API requires for stream URLs.
func (c *Client) StreamInfo(ctx context.Context, trackID string, tier int) (*model.StreamDescriptor, error) {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sig := fmt.Sprintf("trackgetFileUrlformat_id%dintentstreamtrack_id%s%s%s", tier, trackID, ts, c.secret)

	query := url.Values{}
	query.Set("request_ts", ts)
	query.Set("request_sig", fmt.Sprintf("%x", md5.Sum([]byte(sig))))
	query.Set("track_id", trackID)
	query.Set("format_id", strconv.Itoa(tier))
	query.Set("intent", "stream")

	r, err := c.get(ctx, "track/getFileUrl", query)
	if err != nil {
		return nil, err
	}

	rate := r.Get("sampling_rate")
	return &model.StreamDescriptor{
		URL:          r.Get("url").String(),
		SamplingRate: rate.Float(),
		BitDepth:     int(r.Get("bit_depth").Int()),
		IsSample:     r.Get("sample").Bool() || !rate.Exists(),
	}, nil
}

// AlbumMetadata calls album/get. The streamable flag is carried on the
// returned album; callers decide whether to treat it as fatal.
func (c *Client) AlbumMetadata(ctx context.Context, albumID string) (*model.Album, error) {
	query := url.Values{}
	query.Set("album_id", albumID)

	r, err := c.get(ctx, "album/get", query)
	if err != nil {
		return nil, err
	}

	album := albumFromJSON(r)
	album.ID = albumID
	for _, tr := range r.Get("tracks.items").Array() {
		album.Tracks = append(album.Tracks, trackFromJSON(tr, album))
	}
	return album, nil
}

// TrackMetadata calls track/get and builds the track together with its
// embedded album reference.
func (c *Client) TrackMetadata(ctx context.Context, trackID string) (*model.Track, error) {
	query := url.Values{}
	query.Set("track_id", trackID)

	r, err := c.get(ctx, "track/get", query)
	if err != nil {
		return nil, err
	}

	album := albumFromJSON(r.Get("album"))
	album.ID = r.Get("album.id").String()
	track := trackFromJSON(r, album)
	album.Tracks = []*model.Track{track}
	return track, nil
}

// ArtistAlbums calls artist/get with the albums extra.
func (c *Client) ArtistAlbums(ctx context.Context, artistID string) (string, []*model.AlbumSummary, error) {
	return c.browseAlbums(ctx, "artist/get", "artist_id", artistID)
}

// LabelAlbums calls label/get with the albums extra.
func (c *Client) LabelAlbums(ctx context.Context, labelID string) (string, []*model.AlbumSummary, error) {
	return c.browseAlbums(ctx, "label/get", "label_id", labelID)
}

func (c *Client) browseAlbums(ctx context.Context, endpoint, idParam, id string) (string, []*model.AlbumSummary, error) {
	query := url.Values{}
	query.Set(idParam, id)
	query.Set("extra", "albums")
	query.Set("limit", strconv.Itoa(browseLimit))

	r, err := c.get(ctx, endpoint, query)
	if err != nil {
		return "", nil, err
	}

	var summaries []*model.AlbumSummary
	for _, a := range r.Get("albums.items").Array() {
		summaries = append(summaries, &model.AlbumSummary{
			ID:          a.Get("id").String(),
			Title:       a.Get("title").String(),
			Artist:      a.Get("artist.name").String(),
			TracksCount: int(a.Get("tracks_count").Int()),
		})
	}
	return r.Get("name").String(), summaries, nil
}

// PlaylistTracks calls playlist/get with the tracks extra.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) (string, []*model.Track, error) {
	query := url.Values{}
	query.Set("playlist_id", playlistID)
	query.Set("extra", "tracks")
	query.Set("limit", strconv.Itoa(browseLimit))

	r, err := c.get(ctx, "playlist/get", query)
	if err != nil {
		return "", nil, err
	}

	var tracks []*model.Track
	for _, tr := range r.Get("tracks.items").Array() {
		album := albumFromJSON(tr.Get("album"))
		album.ID = tr.Get("album.id").String()
		tracks = append(tracks, trackFromJSON(tr, album))
	}
	return r.Get("name").String(), tracks, nil
}

func albumFromJSON(r gjson.Result) *model.Album {
	year := r.Get("release_date_original").String()
	if len(year) >= 4 {
		year = year[:4]
	}
	return &model.Album{
		Title:      r.Get("title").String(),
		Version:    r.Get("version").String(),
		Artist:     r.Get("artist.name").String(),
		Year:       year,
		Streamable: r.Get("streamable").Bool(),
		ImageURL:   r.Get("image.large").String(),
	}
}

func trackFromJSON(r gjson.Result, album *model.Album) *model.Track {
	media := int(r.Get("media_number").Int())
	if media == 0 {
		media = 1
	}
	return &model.Track{
		ID:              r.Get("id").String(),
		Title:           r.Get("title").String(),
		Number:          int(r.Get("track_number").Int()),
		MediaNumber:     media,
		Performer:       r.Get("performer.name").String(),
		MaxBitDepth:     int(r.Get("maximum_bit_depth").Int()),
		MaxSamplingRate: r.Get("maximum_sampling_rate").Float(),
		Album:           album,
	}
}

// CoverURL rewrites a cover-art URL to its original-quality variant
// when requested. The default thumbnail carries a _600. size token.
func CoverURL(rawURL string, originalQuality bool) string {
	if !originalQuality {
		return rawURL
	}
	return strings.Replace(rawURL, "_600.", "_org.", 1)
}
