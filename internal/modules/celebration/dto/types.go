package dto

type PluginInfo struct {
	Name         string
	Version      string
	Enabled      bool
	Binary       string
	Capabilities []string
}

type DoctorResult struct {
	Name            string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	Error           string
}

type CelebrateInput struct {
	HistoryID      int64
	Title          string
	Tasks          []string
	ElapsedMinutes *int
}

type BannerOutput struct {
	Source string
	Lines  []string
}

type CelebrateOutput struct {
	Banners  []BannerOutput
	Fallback bool
}
