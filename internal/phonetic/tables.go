package phonetic

// Transliteration tables for the menu vocabulary the engine encounters in
// practice. Coverage is intentionally curated rather than exhaustive: an
// unmapped character or token falls back to its raw form, which still keys
// deterministically.

// hanToPinyin maps Han characters to their canonical Mandarin syllable
// (toneless pinyin).
var hanToPinyin = map[rune]string{
	'宫': "gong", '保': "bao", '鸡': "ji", '丁': "ding",
	'牛': "niu", '肉': "rou", '猪': "zhu", '鸭': "ya",
	'鱼': "yu", '虾': "xia", '蟹': "xie", '蛋': "dan",
	'面': "mian", '飯': "fan", '饭': "fan", '粉': "fen",
	'汤': "tang", '湯': "tang", '菜': "cai", '豆': "dou",
	'腐': "fu", '春': "chun", '卷': "juan", '炒': "chao",
	'烤': "kao", '蒸': "zheng", '炸': "zha", '煎': "jian",
	'甜': "tian", '酸': "suan", '辣': "la", '咸': "xian",
	'白': "bai", '红': "hong", '青': "qing", '黑': "hei",
	'大': "da", '小': "xiao", '中': "zhong",
	'点': "dian", '心': "xin", '包': "bao", '子': "zi",
	'饺': "jiao", '馄': "hun", '饨': "tun", '米': "mi",
	'茶': "cha", '水': "shui", '酒': "jiu", '奶': "nai",
	'麻': "ma", '婆': "po", '干': "gan", '锅': "guo",
	'芙': "fu", '蓉': "rong", '左': "zuo", '宗': "zong",
	'棠': "tang", '陈': "chen", '皮': "pi", '柠': "ning",
	'檬': "meng", '芝': "zhi", '蒜': "suan", '姜': "jiang",
	'葱': "cong", '油': "you", '盐': "yan", '糖': "tang",
}

// hanToJyutping maps Han characters to their canonical Cantonese syllable
// (toneless jyutping).
var hanToJyutping = map[rune]string{
	'宫': "gung", '保': "bou", '鸡': "gai", '丁': "ding",
	'牛': "ngau", '肉': "juk", '猪': "zyu", '鸭': "aap",
	'鱼': "jyu", '虾': "haa", '蟹': "haai", '蛋': "daan",
	'面': "min", '飯': "faan", '饭': "faan", '粉': "fan",
	'汤': "tong", '湯': "tong", '菜': "coi", '豆': "dau",
	'腐': "fu", '春': "ceon", '卷': "gyun", '炒': "caau",
	'烤': "haau", '蒸': "zing", '炸': "zaa", '煎': "zin",
	'甜': "tim", '酸': "syun", '辣': "laat", '咸': "haam",
	'白': "baak", '红': "hung", '青': "cing", '黑': "hak",
	'大': "daai", '小': "siu", '中': "zung",
	'点': "dim", '心': "sam", '包': "baau", '子': "zai",
	'饺': "gaau", '馄': "wan", '饨': "tan", '米': "mai",
	'茶': "caa", '水': "seoi", '酒': "zau", '奶': "naai",
	'麻': "maa", '婆': "po", '干': "gon", '锅': "wo",
	'芙': "fu", '蓉': "jung", '左': "zo", '宗': "zung",
	'棠': "tong", '陈': "can", '皮': "pei", '柠': "ning",
	'檬': "mung", '芝': "zi", '蒜': "syun", '姜': "goeng",
	'葱': "cung", '油': "jau", '盐': "jim", '糖': "tong",
}

// pinyinSyllables canonicalizes romanized Mandarin tokens, including the
// Wade-Giles and ASR spellings that show up in transcripts ("kung pow").
var pinyinSyllables = map[string]string{
	"gong": "gong", "kung": "gong", "gung": "gong",
	"bao": "bao", "pao": "bao", "pow": "bao", "pau": "bao",
	"ji": "ji", "gee": "ji", "chi": "ji",
	"ding": "ding",
	"niu": "niu", "nyu": "niu",
	"rou": "rou",
	"mian": "mian", "mien": "mian", "mein": "mian",
	"fan": "fan",
	"tang": "tang",
	"chao": "chao", "chow": "chao", "tsao": "chao",
	"dou": "dou", "tou": "dou",
	"fu": "fu", "foo": "fu",
	"ma": "ma", "mah": "ma",
	"po": "po",
	"tso": "zuo", "zuo": "zuo",
	"hun": "hun", "wonton": "hun tun",
	"jiao": "jiao", "chiao": "jiao",
	"cha": "cha", "tsa": "cha",
	"la": "la",
	"szechuan": "si chuan", "sichuan": "si chuan",
	"lo": "lu", "lu": "lu",
	"moo": "mu", "mu": "mu",
	"shu": "shu",
	"goo": "gu", "gu": "gu",
	"gai": "ji", "kai": "ji",
	"pan": "pan",
	"han": "han",
}

// jyutpingSyllables canonicalizes romanized Cantonese tokens.
var jyutpingSyllables = map[string]string{
	"gung": "gung", "kung": "gung", "gong": "gung",
	"bou": "bou", "bo": "bou",
	"gai": "gai", "kai": "gai",
	"ngau": "ngau", "ngow": "ngau",
	"juk": "juk", "yuk": "juk",
	"min": "min", "mein": "min", "mien": "min",
	"faan": "faan", "fan": "faan", "fahn": "faan",
	"tong": "tong",
	"caau": "caau", "chow": "caau", "chau": "caau",
	"haa": "haa", "ha": "haa",
	"dim": "dim",
	"sam": "sam", "sum": "sam",
	"baau": "baau", "bao": "baau", "pau": "baau",
	"cheong": "coeng", "coeng": "coeng",
	"siu": "siu", "seo": "siu",
	"mai": "mai",
	"daan": "daan", "dan": "daan",
	"caa": "caa", "cha": "caa",
	"wan": "wan", "won": "wan",
	"tan": "tan", "ton": "tan",
	"gaau": "gaau", "gow": "gaau",
	"lo": "lou", "lou": "lou",
	"hei": "hei",
	"fun": "fan",
}
