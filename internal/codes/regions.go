package codes

// provinceNames maps 2-digit province (sido) codes to display names.
var provinceNames = map[string]string{
	"11": "서울특별시",
	"26": "부산광역시",
	"27": "대구광역시",
	"28": "인천광역시",
	"29": "광주광역시",
	"30": "대전광역시",
	"31": "울산광역시",
	"36": "세종특별자치시",
	"41": "경기도",
	"43": "충청북도",
	"44": "충청남도",
	"45": "전라북도",
	"46": "전라남도",
	"47": "경상북도",
	"48": "경상남도",
	"50": "제주특별자치도",
	"51": "강원특별자치도",
}

// districtNames maps 4-digit district (gugun) codes to display names.
var districtNames = map[string]string{
	"1111": "종로구",
	"1114": "중구",
	"1117": "용산구",
	"1120": "성동구",
	"1121": "광진구",
	"1123": "동대문구",
	"1126": "중랑구",
	"1129": "성북구",
	"1130": "강북구",
	"1132": "도봉구",
	"1135": "노원구",
	"1138": "은평구",
	"1141": "서대문구",
	"1144": "마포구",
	"1147": "양천구",
	"1150": "강서구",
	"1153": "구로구",
	"1154": "금천구",
	"1156": "영등포구",
	"1159": "동작구",
	"1162": "관악구",
	"1165": "서초구",
	"1168": "강남구",
	"1171": "송파구",
	"1174": "강동구",
	"2611": "중구",
	"2614": "서구",
	"2617": "동구",
	"2620": "영도구",
	"2623": "부산진구",
	"2626": "동래구",
	"2629": "남구",
	"2632": "북구",
	"2635": "해운대구",
	"2638": "사하구",
	"2641": "금정구",
	"2644": "강서구",
	"2647": "연제구",
	"2650": "수영구",
	"2653": "사상구",
	"2671": "기장군",
	"4111": "수원시",
	"4113": "성남시",
	"4128": "고양시",
	"4146": "용인시",
}

// ProvinceName returns the display name of a 2-digit province code.
func ProvinceName(code string) (string, bool) {
	name, ok := provinceNames[code]
	return name, ok
}

// DistrictName returns the display name of a 4-digit district code.
func DistrictName(code string) (string, bool) {
	name, ok := districtNames[code]
	return name, ok
}

// ProvinceOf returns the province code for a province or district code.
// District codes nest within their province by their first two digits.
func ProvinceOf(code string) string {
	if len(code) >= 2 {
		return code[:2]
	}
	return ""
}

// RegionLabel returns a display label for a region code, falling back to the code.
func RegionLabel(code string) string {
	if len(code) == 4 {
		if name, ok := districtNames[code]; ok {
			if province, ok := provinceNames[ProvinceOf(code)]; ok {
				return province + " " + name
			}
			return name
		}
	}
	if name, ok := provinceNames[code]; ok {
		return name
	}
	return code
}
