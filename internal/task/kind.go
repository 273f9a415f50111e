package task

// Kind names a logical task slot. At most one worker per Kind is current.
type Kind int

const (
	FilterPackages Kind = iota
	PackageInfo
	Config
	CheckHealth
	InstallPackage
	UninstallPackage
	UpdatePackage
	Clean
	GeneralInfo
)

var kindNames = [...]string{
	FilterPackages:   "FilterPackages",
	PackageInfo:      "PackageInfo",
	Config:           "Config",
	CheckHealth:      "CheckHealth",
	InstallPackage:   "InstallPackage",
	UninstallPackage: "UninstallPackage",
	UpdatePackage:    "UpdatePackage",
	Clean:            "Clean",
	GeneralInfo:      "GeneralInfo",
}

// Kinds returns every Kind in declaration order.
func Kinds() []Kind {
	ks := make([]Kind, len(kindNames))
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

func (k Kind) String() string {
	if !k.valid() {
		return "Unknown"
	}
	return kindNames[k]
}

func (k Kind) valid() bool { return k >= 0 && int(k) < len(kindNames) }

// Outcome is how the last current run of a slot ended.
type Outcome int

const (
	Pending Outcome = iota
	Succeeded
	Failed
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "ok"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	}
	return "-"
}
