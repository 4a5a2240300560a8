package ndax

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"example.com/ndagate/internal/common"
)

// Metadata carries the informational fields read from the archive's XML
// members. They are diagnostics only and never affect numeric output.
type Metadata struct {
	ServerVersion      string
	ClientVersion      string
	ControlUnitVersion string
	TesterVersion      string
	ActiveMass         float64 // mg
}

type versionInfoXML struct {
	Config struct {
		ZwjVersion struct {
			SvrVer        string `xml:"SvrVer,attr"`
			CurrClientVer string `xml:"CurrClientVer,attr"`
			ZwjVersion    string `xml:"ZwjVersion,attr"`
			MainXwjVer    string `xml:"MainXwjVer,attr"`
		} `xml:"ZwjVersion"`
	} `xml:"config"`
}

type stepXML struct {
	Config struct {
		HeadInfo struct {
			SCQ struct {
				Value string `xml:"Value,attr"`
			} `xml:"SCQ"`
		} `xml:"Head_Info"`
	} `xml:"config"`
}

// readMetadata parses the optional VersionInfo.xml and Step.xml members.
// The files are GB2312-encoded; any failure is silently ignored.
func readMetadata(ar Archive) Metadata {
	var meta Metadata
	if raw, err := ar.ReadFile("VersionInfo.xml"); err == nil {
		var doc versionInfoXML
		if err := unmarshalGB2312(raw, &doc); err == nil {
			v := doc.Config.ZwjVersion
			meta.ServerVersion = v.SvrVer
			meta.ClientVersion = v.CurrClientVer
			meta.ControlUnitVersion = v.ZwjVersion
			meta.TesterVersion = v.MainXwjVer
			common.Logf("server version: %s", meta.ServerVersion)
			common.Logf("client version: %s", meta.ClientVersion)
			common.Logf("control unit version: %s", meta.ControlUnitVersion)
			common.Logf("tester version: %s", meta.TesterVersion)
		}
	}
	if raw, err := ar.ReadFile("Step.xml"); err == nil {
		var doc stepXML
		if err := unmarshalGB2312(raw, &doc); err == nil {
			if mass, err := strconv.ParseFloat(doc.Config.HeadInfo.SCQ.Value, 64); err == nil {
				meta.ActiveMass = mass / 1000
				common.Logf("active mass: %g mg", meta.ActiveMass)
			}
		}
	}
	return meta
}

func unmarshalGB2312(raw []byte, v interface{}) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "gb2312", "gbk", "gb18030":
			return transform.NewReader(input, simplifiedchinese.GB18030.NewDecoder()), nil
		default:
			return input, nil
		}
	}
	return dec.Decode(v)
}
