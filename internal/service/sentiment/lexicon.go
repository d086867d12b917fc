package sentiment

// valence of individual words on a -4..4 scale
var lexicon = map[string]float64{
	// general
	"good": 1.9, "great": 3.1, "excellent": 3.2, "amazing": 2.8, "awesome": 3.1,
	"best": 3.2, "better": 1.9, "love": 3.2, "loving": 2.9, "loved": 2.9,
	"like": 1.5, "liked": 1.8, "nice": 1.8, "happy": 2.7, "glad": 2.0,
	"perfect": 2.7, "perfectly": 2.5, "fantastic": 2.6, "wonderful": 2.7,
	"impressed": 2.1, "impressive": 2.3, "recommend": 1.5, "favorite": 2.0,
	"favourite": 2.0, "fast": 0.9, "strong": 2.3, "win": 2.8, "award": 2.5,
	"innovative": 1.9, "exclusive": 0.5, "leading": 1.2, "success": 2.7,
	"growth": 1.6, "deals": 1.1, "deal": 0.8, "sale": 0.6, "beautiful": 2.9,
	"stylish": 2.1, "comfortable": 1.7, "quality": 1.2, "sustainable": 1.3,
	"fun": 2.3, "cool": 1.3, "worth": 0.9, "thanks": 1.9, "thank": 1.5,
	"definitely": 1.7, "reliable": 1.7, "affordable": 1.4, "trendy": 1.6,

	"bad": -2.5, "worse": -2.1, "worst": -3.1, "hate": -2.7, "hated": -3.2,
	"awful": -2.0, "terrible": -2.1, "horrible": -2.5, "poor": -2.1,
	"disappointed": -1.9, "disappointing": -2.2, "disappointment": -2.3,
	"expensive": -0.9, "overpriced": -1.9, "cheap": -0.4, "slow": -0.7,
	"waiting": -0.4, "late": -0.9, "broken": -1.5, "damaged": -1.9,
	"scam": -2.3, "fraud": -2.8, "fake": -2.1, "problem": -1.7,
	"problems": -1.7, "issue": -0.9, "issues": -0.9, "refund": -0.6,
	"return": -0.2, "ugly": -2.3, "boring": -1.3, "rude": -2.0,
	"lawsuit": -1.8, "boycott": -1.3, "controversy": -1.4, "waste": -1.8,
	"unfortunately": -1.5, "sad": -2.1, "angry": -2.3, "annoying": -1.7,
	"alternatives": -0.2, "sweatshop": -2.6, "layoffs": -2.0, "decline": -1.2,
}

// words that scale the valence of the word that follows
var boosters = map[string]float64{
	"absolutely": 0.293, "very": 0.293, "really": 0.293, "super": 0.293,
	"so": 0.293, "extremely": 0.293, "highly": 0.293, "incredibly": 0.293,
	"totally": 0.293, "most": 0.293, "completely": 0.293, "truly": 0.293,
	"barely": -0.293, "hardly": -0.293, "slightly": -0.293, "somewhat": -0.293,
	"kinda": -0.293, "tbh": -0.1,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nothing": {}, "nobody": {},
	"neither": {}, "nor": {}, "without": {}, "cannot": {}, "isn't": {},
	"aren't": {}, "wasn't": {}, "weren't": {}, "don't": {}, "doesn't": {},
	"didn't": {}, "won't": {}, "can't": {}, "couldn't": {}, "shouldn't": {},
	"wouldn't": {}, "ain't": {}, "isnt": {}, "dont": {}, "doesnt": {},
	"didnt": {}, "cant": {}, "wont": {},
}
