package harness

// CompressText is the compression corpus.
const CompressText = "Biodiesel cupidatat marfa, cliche aute put a bird on it incididunt elit\n" +
	"polaroid. Sunt tattooed bespoke reprehenderit. Sint twee organic id\n" +
	"marfa. Commodo veniam ad esse gastropub. 3 wolf moon sartorial vero,\n" +
	"plaid delectus biodiesel squid +1 vice. Post-ironic keffiyeh leggings\n" +
	"selfies cray fap hoodie, forage anim. Carles cupidatat shoreditch, VHS\n" +
	"small batch meggings kogi dolore food truck bespoke gastropub.\n" +
	"\n" +
	"Terry richardson adipisicing actually typewriter tumblr, twee whatever\n" +
	"four loko you probably haven't heard of them high life. Messenger bag\n" +
	"whatever tattooed deep v mlkshk. Brooklyn pinterest assumenda chillwave\n" +
	"et, banksy ullamco messenger bag umami pariatur direct trade forage.\n" +
	"Typewriter culpa try-hard, pariatur sint brooklyn meggings. Gentrify\n" +
	"food truck next level, tousled irony non semiotics PBR ethical anim cred\n" +
	"readymade. Mumblecore brunch lomo odd future, portland organic terry\n" +
	"four loko whatever street art yr farm-to-table.\n"

// CompressBufferSize is the size of every compression output buffer.
const CompressBufferSize = 1024
