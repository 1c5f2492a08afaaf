package browserinfo

import "strings"

type keywordSet []string

func (k keywordSet) contains(s string) bool {
	for _, keyword := range k {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

var (
	botKeywords          = keywordSet{"bot", "spider", "crawler", "archiver", "lighthouse", "slurp", "facebookexternalhit", "whatsapp", "telegram", "discord", "headlesschrome", "monitor", "fetcher", "scraper"}
	tabletKeywords       = keywordSet{"tablet", "kindle", "silk", "playbook", "kftt", "kfjwi", "sm-t", "gt-p", "mediapad"}
	phoneKeywords        = keywordSet{"mobile", "iphone", "ipod", "windows phone", "iemobile", "blackberry", "bb10", "nokia", "opera mini"}
	iosKeywords          = keywordSet{"iphone", "ipad", "ipod"}
	windowsTouchKeywords = keywordSet{"touch", "tablet"}
)

// OS detection order reflects web traffic: Windows first, then mobile platforms.
var osRules = []struct {
	os       OS
	keywords keywordSet
}{
	{OSWindowsPhone, keywordSet{"windows phone"}},
	{OSWindows, keywordSet{"windows"}},
	{OSiOS, iosKeywords},
	{OSMacOS, keywordSet{"macintosh", "mac os x"}},
	{OSAndroid, keywordSet{"android"}},
	{OSFireOS, keywordSet{"kindle", "silk"}},
	{OSChromeOS, keywordSet{"cros", "chromeos"}},
	{OSLinux, keywordSet{"linux", "ubuntu", "debian", "fedora", "x11"}},
}
