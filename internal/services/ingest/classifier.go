package ingest

import "strings"

// Правило классификации: первый матч по подстроке кода события выигрывает.
// Порядок правил фиксирован и важен: "OUT_FOR_DELIVERY_EXCEPTION" должен
// попасть в OUT_FOR_DELIVERY, а не в EXCEPTION, потому что "OUT" стоит выше.
type rule struct {
	keywords []string
	status   string
}

var rules = []rule{
	{keywords: []string{"DELIVERED"}, status: "DELIVERED"},
	{keywords: []string{"OUT", "DELIVERY"}, status: "OUT_FOR_DELIVERY"},
	{keywords: []string{"TRANSIT", "SHIPPED"}, status: "IN_TRANSIT"},
	{keywords: []string{"EXCEPTION", "FAIL"}, status: "EXCEPTION"},
	{keywords: []string{"LABEL", "PICKUP"}, status: "LABEL_CREATED"},
}

// Classify возвращает целевой статус трекинга для кода события.
// Если ни одно правило не совпало — ok=false, статус трекинга не меняется
// (не деградируем до UNKNOWN).
func Classify(eventCode string) (status string, ok bool) {
	code := strings.ToUpper(eventCode)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(code, kw) {
				return r.status, true
			}
		}
	}
	return "", false
}
