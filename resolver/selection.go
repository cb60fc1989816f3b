package resolver

// DefaultPreferredMimes - MIME типы, которые проигрываются практически везде
var DefaultPreferredMimes = []string{
	"audio/mpeg",
	"audio/mp3",
	"audio/mp4",
	"audio/aac",
	"audio/x-m4a",
	"audio/webm",
}

// PreferenceList - множество предпочтительных MIME типов. Только для чтения после создания.
type PreferenceList struct {
	mimes []string
	set   map[string]struct{}
}

// NewPreferenceList создает список; пустые значения и дубликаты отбрасываются
func NewPreferenceList(mimes ...string) *PreferenceList {
	p := &PreferenceList{set: make(map[string]struct{}, len(mimes))}
	for _, m := range mimes {
		if m == "" {
			continue
		}
		if _, dup := p.set[m]; dup {
			continue
		}
		p.set[m] = struct{}{}
		p.mimes = append(p.mimes, m)
	}
	return p
}

// Contains сообщает, входит ли MIME тип в список
func (p *PreferenceList) Contains(mime string) bool {
	if p == nil {
		return false
	}
	_, ok := p.set[mime]
	return ok
}

// Mimes возвращает копию списка в исходном порядке
func (p *PreferenceList) Mimes() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.mimes...)
}

// SelectStream выбирает поток детерминированно:
//  1. первый кандидат с MIME из списка (порядок кандидатов, а не порядок предпочтений);
//  2. иначе первый кандидат с прямым URL;
//  3. иначе первый кандидат.
//
// ok=false только для пустого списка.
func SelectStream(candidates []Candidate, prefs *PreferenceList) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	for _, c := range candidates {
		if prefs.Contains(c.MimeType) {
			return c, true
		}
	}
	for _, c := range candidates {
		if c.IsURL {
			return c, true
		}
	}
	return candidates[0], true
}
