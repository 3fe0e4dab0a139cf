package content

import "strings"

type gametypePrefix struct {
	name     string
	prefixes []string
}

// More specific prefixes come first; "CTF-GRD-" must win over "CTF-".
var gametypePrefixes = []gametypePrefix{
	{"Greed", []string{"CTF-GRD-", "VCTF-GRD-"}},
	{"BunnyTrack", []string{"CTF-BT-", "BT-"}},
	{"Multi-Team CTF", []string{"CTF4-", "CTFM-"}},
	{"Vehicle CTF", []string{"VCTF-"}},
	{"Capture The Flag", []string{"CTF-"}},
	{"Team DeathMatch", []string{"TDM-"}},
	{"DeathMatch", []string{"DM-"}},
	{"Double Domination", []string{"DDOM-"}},
	{"Domination", []string{"DOM-"}},
	{"Assault", []string{"AS-"}},
	{"Bombing Run", []string{"BR-"}},
	{"Onslaught", []string{"ONS-"}},
	{"Warfare", []string{"WAR-"}},
	{"Last Man Standing", []string{"LMS-"}},
	{"Jailbreak", []string{"JB-"}},
	{"Monster Hunt", []string{"MH-"}},
	{"Invasion", []string{"INV-"}},
	{"Siege", []string{"SGCTF-", "SG-"}},
	{"Single Player", []string{"SP-", "NP-"}},
	{"Rocket Arena", []string{"RA-"}},
}

// GametypeForMap derives a map's gametype from its name prefix.
func GametypeForMap(name string) string {
	upper := strings.ToUpper(name)
	for _, gt := range gametypePrefixes {
		for _, p := range gt.prefixes {
			if strings.HasPrefix(upper, p) {
				return gt.name
			}
		}
	}
	return Unknown
}
