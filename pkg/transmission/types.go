package transmission

// Status is the numeric torrent status reported by the Transmission RPC.
type Status int

const (
	StatusStopped Status = iota
	StatusCheckWait
	StatusCheck
	StatusDownloadWait
	StatusDownload
	StatusSeedWait
	StatusSeed
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusCheckWait:
		return "check pending"
	case StatusCheck:
		return "checking"
	case StatusDownloadWait:
		return "download pending"
	case StatusDownload:
		return "downloading"
	case StatusSeedWait:
		return "seed pending"
	case StatusSeed:
		return "seeding"
	default:
		return "unknown"
	}
}

// special uploadRatio values
const (
	RatioNotAvailable = -1
	RatioInfinite     = -2
)

// TorrentFields are the torrent-get fields needed to build a torrent.
var TorrentFields = []string{
	"id",
	"hashString",
	"name",
	"status",
	"doneDate",
	"uploadRatio",
	"totalSize",
	"labels",
	"trackers",
}

type Torrent struct {
	ID          int64     `json:"id"`
	HashString  string    `json:"hashString"`
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	DoneDate    int64     `json:"doneDate"`
	UploadRatio float64   `json:"uploadRatio"`
	TotalSize   int64     `json:"totalSize"`
	Labels      []string  `json:"labels"`
	Trackers    []Tracker `json:"trackers"`
}

type Tracker struct {
	ID       int    `json:"id"`
	Announce string `json:"announce"`
	Tier     int    `json:"tier"`
}

type Session struct {
	Version    string `json:"version"`
	RPCVersion int    `json:"rpc-version"`
}

type request struct {
	Method    string      `json:"method"`
	Arguments interface{} `json:"arguments,omitempty"`
}

type response[T any] struct {
	Result    string `json:"result"`
	Arguments T      `json:"arguments"`
}
